package domain

import "errors"

var (
	MessageSuccessGetTags   = "success get tags"
	MessageSuccessCreateTag = "tag created successfully"

	MessageFailedGetTags   = "failed to get tags"
	MessageFailedCreateTag = "failed to create tag"

	ErrTagNotFound      = errors.New("tag not found")
	ErrTagAlreadyExists = errors.New("tag name, color and slug must be unique")
)

type (
	CreateTagRequest struct {
		Name  string `json:"name" validate:"required,max=100"`
		Color string `json:"color" validate:"required,hexcolor"`
		Slug  string `json:"slug" validate:"required,max=100"`
	}

	TagResponse struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Slug  string `json:"slug"`
	}
)
