package domain

type Page struct {
	Limit  int
	Offset int
}

type PageResult[T any] struct {
	Items  []T
	Total  int
	Limit  int
	Offset int
}
