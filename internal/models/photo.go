package models

// Photo is an image attached to an estimate. URI is the durable storage
// key; LocalURI is the on-device copy and is nil when the binary still has
// to be fetched.
type Photo struct {
	Revision
	EstimateID  string  `json:"estimate_id"`
	URI         string  `json:"uri"`
	LocalURI    *string `json:"local_uri"`
	Description string  `json:"description"`
}

func (p *Photo) Table() Table { return TablePhotos }

func (p *Photo) Columns() []string {
	return columns("estimate_id", "uri", "local_uri", "description")
}

func (p *Photo) Values() []any {
	var local any
	if p.LocalURI != nil {
		local = *p.LocalURI
	}
	return append(p.Revision.values(), p.EstimateID, p.URI, local, p.Description)
}

func (p *Photo) Scan(row Scanner) error {
	rs := p.Revision.scan()
	dest := append(rs.dest(), &p.EstimateID, &p.URI, &p.LocalURI, &p.Description)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	return rs.finish()
}
