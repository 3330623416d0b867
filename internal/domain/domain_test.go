package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_JSON(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","role":"assistant","content":"x","timestamp":5}`), &m))
	assert.Equal(t, RoleAssistant, m.Role)
	assert.Equal(t, int64(5), m.Timestamp)

	err := json.Unmarshal([]byte(`{"id":"1","role":"system","content":"x"}`), &m)
	assert.Error(t, err)

	data, err := json.Marshal(Message{ID: "1", Role: RoleUser, Content: "oi", Timestamp: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","role":"user","content":"oi","timestamp":7}`, string(data))
}

func TestStory_JSONFieldNames(t *testing.T) {
	author, authorID, model := "Ana", "u1", ModelPro
	story := Story{
		ID:             "s1",
		Title:          "T",
		Universe:       DefaultUniverse,
		Messages:       []Message{},
		UpdatedAt:      10,
		Author:         &author,
		AuthorID:       &authorID,
		PreferredModel: &model,
		IsPublished:    true,
	}
	data, err := json.Marshal(story)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id":"s1","title":"T","universe":"Original","messages":[],"updatedAt":10,
		"author":"Ana","authorId":"u1","preferredModel":"gemini-3-pro-preview","isPublished":true
	}`, string(data))

	data, err = json.Marshal(Story{ID: "s2", Messages: []Message{}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "authorId")
	assert.NotContains(t, string(data), "preferredModel")
}

func TestStory_CloneDoesNotAlias(t *testing.T) {
	author := "Ana"
	model := ModelFlash
	orig := Story{
		ID:             "s1",
		Messages:       []Message{{ID: "m1", Role: RoleUser, Content: "a"}},
		Author:         &author,
		PreferredModel: &model,
	}

	clone := orig.Clone()
	clone.Messages[0].Content = "changed"
	clone.Messages = append(clone.Messages, Message{ID: "m2"})
	*clone.Author = "Bia"
	*clone.PreferredModel = ModelLite

	assert.Equal(t, "a", orig.Messages[0].Content)
	assert.Len(t, orig.Messages, 1)
	assert.Equal(t, "Ana", *orig.Author)
	assert.Equal(t, ModelFlash, *orig.PreferredModel)
	assert.Nil(t, clone.AuthorID)

	assert.Nil(t, CloneStories(nil))
	assert.Len(t, CloneStories([]Story{orig, orig}), 2)
}

func TestStory_Helpers(t *testing.T) {
	s := Story{Messages: []Message{{ID: "a"}, {ID: "b"}}}
	assert.Equal(t, 1, s.MessageIndex("b"))
	assert.Equal(t, -1, s.MessageIndex("z"))

	assert.Equal(t, "Anônimo", s.AuthorName("Anônimo"))
	empty := ""
	s.Author = &empty
	assert.Equal(t, "Anônimo", s.AuthorName("Anônimo"))
	name := "Ana"
	s.Author = &name
	assert.Equal(t, "Ana", s.AuthorName("Anônimo"))
}

func TestParseAIModel(t *testing.T) {
	testCases := []struct {
		in   string
		want AIModel
	}{
		{"gemini-3-flash-preview", ModelFlash},
		{"Pro", ModelPro},
		{"lite", ModelLite},
	}
	for _, tc := range testCases {
		got, err := ParseAIModel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseAIModel("gpt-4")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestModelsCatalog(t *testing.T) {
	models := Models()
	require.Len(t, models, 3)
	assert.Equal(t, DefaultModel, models[0].ID)
	for _, m := range models {
		assert.True(t, m.ID.Valid())
		info, ok := m.ID.Info()
		require.True(t, ok)
		assert.Equal(t, m, info)
	}

	models[0].Name = "mutated"
	assert.Equal(t, "Flash", Models()[0].Name)
	assert.False(t, AIModel("x").Valid())
}

func TestIdeaCatalog(t *testing.T) {
	ideas := IdeaCatalog()
	require.Len(t, ideas, 4)
	ideas[0].Title = "mutated"
	assert.Equal(t, "Inimigos no Elevador", IdeaCatalog()[0].Title)
}

func TestPreferences(t *testing.T) {
	assert.Equal(t, MinFontSize, ClampFontSize(1))
	assert.Equal(t, MaxFontSize, ClampFontSize(100))
	assert.Equal(t, 20, ClampFontSize(20))

	lang, err := ParseLanguage("en-US")
	require.NoError(t, err)
	assert.Equal(t, LanguageEnUS, lang)
	_, err = ParseLanguage("es")
	assert.Error(t, err)

	family, err := ParseFontFamily("mono")
	require.NoError(t, err)
	assert.Equal(t, FontMono, family)
	_, err = ParseFontFamily("comic")
	assert.Error(t, err)
}
