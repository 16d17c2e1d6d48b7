package models

// Flash is a one-shot status message shown on the next rendered page.
type Flash struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

const (
	FlashError   = "error"
	FlashSuccess = "success"
)
