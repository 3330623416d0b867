package domain

// IdeaPrompt - заготовка для старта новой истории.
type IdeaPrompt struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
}

var ideaCatalog = []IdeaPrompt{
	{
		ID:       "1",
		Title:    "Inimigos no Elevador",
		Category: "Romance/Drama",
		Prompt:   "Dois rivais corporativos ficam presos no elevador do 50º andar durante uma tempestade de neve.",
	},
	{
		ID:       "2",
		Title:    "O Portal do Quarto",
		Category: "Fantasia",
		Prompt:   "Você acorda e descobre que o armário do seu quarto é agora um portal para um reino onde magia é movida por música.",
	},
	{
		ID:       "3",
		Title:    "Café Espacial",
		Category: "Ficção Científica",
		Prompt:   "Um humano e um alienígena diplomata discutem a paz galáctica enquanto tomam o pior café da Via Láctea.",
	},
	{
		ID:       "4",
		Title:    "O Segredo da Floresta",
		Category: "Mistério",
		Prompt:   "Em uma pequena cidade, as pessoas começam a esquecer quem são após visitarem a floresta local.",
	},
}

// IdeaCatalog возвращает копию встроенного каталога идей.
func IdeaCatalog() []IdeaPrompt {
	out := make([]IdeaPrompt, len(ideaCatalog))
	copy(out, ideaCatalog)
	return out
}
