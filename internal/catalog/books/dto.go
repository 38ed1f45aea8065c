package books

// BookResponse mirrors the wire format the front end consumes.
type BookResponse struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Author *string `json:"author"`
	Genre  *string `json:"genre"`
	Image  *string `json:"image"`
	Status string  `json:"status"`
}

func ToResponse(b *Book) BookResponse {
	resp := BookResponse{
		ID:     b.ID,
		Title:  b.Title,
		Status: b.Status,
	}
	if b.Author.Valid {
		val := b.Author.String
		resp.Author = &val
	}
	if b.Genre.Valid {
		val := b.Genre.String
		resp.Genre = &val
	}
	if b.Image.Valid {
		val := b.Image.String
		resp.Image = &val
	}
	return resp
}

type CreateBookRequest struct {
	Title  string  `json:"title" binding:"required"`
	Author *string `json:"author,omitempty"`
	Genre  *string `json:"genre,omitempty"`
	Image  *string `json:"image,omitempty"`
}

type UpdateBookRequest struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
	Genre  *string `json:"genre,omitempty"`
	Image  *string `json:"image,omitempty"`
}
