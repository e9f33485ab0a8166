package models

// Category — категория /categorias/.
type Category struct {
	ID            int64  `json:"id"`
	Nome          string `json:"nome"`
	TipoCategoria Kind   `json:"tipo_categoria"`
}

// CategoryInput — тело создания/обновления категории.
type CategoryInput struct {
	Nome          string `json:"nome"`
	TipoCategoria Kind   `json:"tipo_categoria"`
}

func (in CategoryInput) Validate() error {
	var c checker
	c.check(!blank(in.Nome), "nome", "Nome é obrigatório")
	c.check(in.TipoCategoria.Valid(), "tipo_categoria", "Tipo deve ser entrada ou saida")

	return c.err()
}
