package models

// File загруженный клиентом файл из multipart-формы.
type File struct {
	Name string
	Data []byte
}

// BookInput данные для создания книги администратором.
type BookInput struct {
	Title         string
	Author        string
	Category      string
	IsPremium     bool
	IsFree        bool
	AffiliateLink *string
	Cover         File
	Pages         []File
}
