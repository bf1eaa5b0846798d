package core

// AssetMetadata is best-effort display information about an asset.
// Any field may be empty.
type AssetMetadata struct {
	Mint   string
	Name   string
	Symbol string
	Image  string
}

// IsComplete reports whether both a name and an image are known.
func (m AssetMetadata) IsComplete() bool {
	return m.Name != "" && m.Image != ""
}
