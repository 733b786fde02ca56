package geo

// Country is the lookup result for a geoname id: the ISO 3166-1 code
// and the English country name. Either field may be empty, as upstream
// location tables carry partial rows for disputed or unassigned areas.
type Country struct {
	IsoCode string `json:"iso_code"`
	Name    string `json:"name"`
}

// IsZero reports whether the lookup produced no country at all.
func (c Country) IsZero() bool {
	return c.IsoCode == "" && c.Name == ""
}
