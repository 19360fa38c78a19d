package dto

import "github.com/cuongbtq/jobboard/internal/jobdetail"

// FavouriteResponse is returned after a successful favourite toggle
type FavouriteResponse struct {
	JobID       string `json:"job_id"`
	IsFavourite bool   `json:"is_favourite"`
}

// LiveEvent is sent by the browser over the live session
type LiveEvent struct {
	Action string `json:"action"`
}

const (
	LiveActionToggleFavourite = "toggle_favourite"
	LiveActionImageLoaded     = "image_loaded"
)

// LiveFrame is pushed to the browser over the live session
type LiveFrame struct {
	Type  string          `json:"type"`
	Page  *jobdetail.Page `json:"page,omitempty"`
	Error string          `json:"error,omitempty"`
}

const (
	LiveFramePage  = "page"
	LiveFrameError = "error"
)
