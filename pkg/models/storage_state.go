package models

// Cookie is a single browser cookie captured in a storage-state blob.
type Cookie struct {
	Name     string  `json:"name"     validate:"required"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"   validate:"required"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// LocalStorageItem is one key/value pair of an origin's local storage.
type LocalStorageItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OriginState captures the local storage of a single origin.
type OriginState struct {
	Origin       string             `json:"origin" validate:"required"`
	LocalStorage []LocalStorageItem `json:"localStorage"`
}

// StorageState is the opaque credential blob used to pre-authenticate a
// browser-automation run: cookies plus per-origin local storage. The client
// stores and injects it without interpreting the contents.
type StorageState struct {
	Cookies []Cookie      `json:"cookies"`
	Origins []OriginState `json:"origins"`
}

// IsEmpty reports whether the blob carries no data at all. An empty blob is
// never injected into a run.
func (s StorageState) IsEmpty() bool {
	return len(s.Cookies) == 0 && len(s.Origins) == 0
}
