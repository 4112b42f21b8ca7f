package cache

// Keyer derives cache keys.
type Keyer interface {
	// GeometryKey keys the decoded and built meshes of one archive.
	GeometryKey(archiveHash string, opts GeometryKeyOpts) string

	// ArtifactKey keys one rendered output file.
	ArtifactKey(geometryHash string, opts ArtifactKeyOpts) string
}

// GeometryKeyOpts holds the options that change built geometry.
type GeometryKeyOpts struct {
	Orientation string `json:"orientation"`
	Primitive   string `json:"primitive"`
	Grouping    string `json:"grouping"`
	HalfWidth   bool   `json:"half_width"`
}

// ArtifactKeyOpts holds the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Source string `json:"source,omitempty"`
}

// DefaultKeyer produces keys of the form kind:sha256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GeometryKey implements [Keyer].
func (DefaultKeyer) GeometryKey(archiveHash string, opts GeometryKeyOpts) string {
	return hashKey("geometry", archiveHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(geometryHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, geometryHash, opts)
}
