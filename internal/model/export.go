package model

// PackageImport is the package-detail JSON returned by the dashboard API.
type PackageImport struct {
	PackageID   int64            `json:"package_id"`
	PackageName string           `json:"package_name"`
	UserID      int64            `json:"user_id,omitempty"`
	Tags        []TagImport      `json:"tags"`
	Questions   []QuestionAnswer `json:"questions"`
}

// TagImport is a tag as it appears in package-detail JSON.
type TagImport struct {
	TagID   int64  `json:"tag_id"`
	TagName string `json:"tag_name"`
	UserID  int64  `json:"user_id,omitempty"`
}

// ToPackage maps the API shape onto a Package.
func (pi PackageImport) ToPackage() Package {
	tags := make([]Tag, 0, len(pi.Tags))
	for _, t := range pi.Tags {
		tags = append(tags, Tag{ID: t.TagID, Name: t.TagName})
	}
	p := NewPackage(pi.PackageName, tags, pi.Questions)
	p.ID = pi.PackageID
	return p
}

// ImportFromPackage is the inverse of ToPackage, used when serving package detail.
func ImportFromPackage(p Package) PackageImport {
	tags := make([]TagImport, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, TagImport{TagID: t.ID, TagName: t.Name})
	}
	qs := p.Questions
	if qs == nil {
		qs = []QuestionAnswer{}
	}
	return PackageImport{
		PackageID:   p.ID,
		PackageName: p.Name,
		Tags:        tags,
		Questions:   qs,
	}
}

// PackageSummary is a row of the package list.
type PackageSummary struct {
	ID            int64  `json:"package_id"`
	Name          string `json:"package_name"`
	QuestionCount int    `json:"question_count"`
}
