package fsentry

// ListEntriesQuery holds the listing query params. "limit" is an alias of
// "pageSize"; when both are given, "pageSize" wins.
type ListEntriesQuery struct {
	Page        *int   `query:"page" json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize    *int   `query:"pageSize" json:"pageSize,omitempty" validate:"omitempty,min=1"`
	Limit       *int   `query:"limit" json:"limit,omitempty" validate:"omitempty,min=1"`
	SearchQuery string `query:"searchQuery" json:"searchQuery,omitempty" mod:"trim" validate:"max=100"`
	SortBy      string `query:"sortBy" json:"sortBy,omitempty" mod:"trim" validate:"omitempty,oneof=createdAt updatedAt name"`
	SortOrder   string `query:"sortOrder" json:"sortOrder,omitempty" mod:"trim,lcase" validate:"omitempty,oneof=asc desc"`
}
