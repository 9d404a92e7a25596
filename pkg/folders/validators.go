package folders

type CreateFolderPayload struct {
	Name        string  `json:"name" mod:"trim" validate:"required,min=1,max=255"`
	Description *string `json:"description" mod:"trim" validate:"omitempty,max=1000"`
	ParentID    *int    `json:"parentId" validate:"omitempty,min=1"`
}

type UpdateFolderPayload struct {
	Name        *string `json:"name,omitempty" mod:"trim" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" mod:"trim" validate:"omitempty,max=1000"`
}
