package jobdetail

import "html/template"

// PageKind selects which layout a view renders
type PageKind string

const (
	PageLoading  PageKind = "loading"
	PageDetail   PageKind = "detail"
	PageNotFound PageKind = "not_found"
)

// NotFoundMessage is shown both for missing jobs and failed loads
const NotFoundMessage = "There was a problem loading the job details, or the job listing has been removed. Please try again later."

// Page is the render output of a view
type Page struct {
	Kind    PageKind `json:"kind"`
	JobID   string   `json:"job_id"`
	Message string   `json:"message,omitempty"`
	Detail  *Detail  `json:"detail,omitempty"`
}

// Detail is the full job layout
type Detail struct {
	Title         string        `json:"title"`
	Company       string        `json:"company"`
	CompanyURL    string        `json:"company_url"`
	LogoSrc       string        `json:"logo_src"`
	LogoURL       string        `json:"logo_url"`
	Location      string        `json:"location"`
	Type          string        `json:"type"`
	Elapsed       string        `json:"elapsed"`
	Description   template.HTML `json:"description"`
	HowToApply    template.HTML `json:"how_to_apply"`
	ShowFavourite bool          `json:"show_favourite"`
	IsFavourite   bool          `json:"is_favourite"`
}
