package documents

type CreateDocumentPayload struct {
	Name          string  `json:"name" mod:"trim" validate:"required,min=1,max=255"`
	Description   *string `json:"description" mod:"trim" validate:"omitempty,max=1000"`
	FileExtension string  `json:"fileExtension" mod:"trim,lcase" validate:"required,extension"`
	FileSize      int64   `json:"fileSize" validate:"required,min=1"`
	FolderID      *int    `json:"folderId" validate:"omitempty,min=1"`
}

type UpdateDocumentPayload struct {
	Name        *string `json:"name,omitempty" mod:"trim" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" mod:"trim" validate:"omitempty,max=1000"`
}
