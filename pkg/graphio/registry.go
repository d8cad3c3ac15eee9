package graphio

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

// ErrUnknownDataset is returned when a registry has no entry with the requested name
var ErrUnknownDataset = errors.New("unknown dataset")

var validate = validator.New()

// Dataset is one registry entry
type Dataset struct {
	Name             string  `mapstructure:"name" json:"name" validate:"required"`
	File             string  `mapstructure:"file" json:"file" validate:"required"`
	Format           string  `mapstructure:"format" json:"format" validate:"omitempty,oneof=bitcoin konect epinions edgelist"`
	Sep              string  `mapstructure:"sep" json:"sep"`
	Comment          string  `mapstructure:"comment" json:"comment"`
	SkipRows         int     `mapstructure:"skip_rows" json:"skip_rows" validate:"gte=0"`
	NormalizerFactor float64 `mapstructure:"normalizer_factor" json:"normalizer_factor" validate:"gte=0"`
	Unweighted       bool    `mapstructure:"unweighted" json:"unweighted"`
	Directed         bool    `mapstructure:"directed" json:"directed"`
}

// Options converts the entry into loader options
func (d Dataset) Options() Options {
	opts := DefaultOptions()
	opts.Separator = d.Sep
	if d.Comment != "" {
		opts.Comment = d.Comment
	}
	opts.SkipRows = d.SkipRows
	if d.NormalizerFactor > 0 {
		opts.NormalizerFactor = d.NormalizerFactor
	}
	opts.Unweighted = d.Unweighted
	opts.Directed = d.Directed
	return opts
}

// Path resolves the dataset file against dataDir unless it is absolute
func (d Dataset) Path(dataDir string) string {
	if filepath.IsAbs(d.File) || dataDir == "" {
		return d.File
	}
	return filepath.Join(dataDir, d.File)
}

// Registry is a named collection of datasets
type Registry struct {
	DataDir  string    `mapstructure:"data_dir" json:"data_dir"`
	Datasets []Dataset `mapstructure:"datasets" json:"datasets" validate:"dive"`
}

// LoadRegistry reads a YAML, JSON or TOML registry file. A relative data_dir
// is resolved against the directory of the file.
func LoadRegistry(path string) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("data_dir", ".")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var reg Registry
	if err := v.Unmarshal(&reg); err != nil {
		return nil, fmt.Errorf("failed to decode registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if !filepath.IsAbs(reg.DataDir) {
		reg.DataDir = filepath.Join(filepath.Dir(path), reg.DataDir)
	}
	return &reg, nil
}

// Validate checks every entry and rejects duplicate names
func (r *Registry) Validate() error {
	if err := validate.Struct(r); err != nil {
		return formatValidationError(err)
	}
	seen := make(map[string]struct{}, len(r.Datasets))
	for _, d := range r.Datasets {
		if _, ok := seen[d.Name]; ok {
			return fmt.Errorf("duplicate dataset name %q", d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

// Names returns the dataset names in ascending order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Datasets))
	for _, d := range r.Datasets {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// Get returns the entry called name
func (r *Registry) Get(name string) (Dataset, error) {
	for _, d := range r.Datasets {
		if d.Name == name {
			return d, nil
		}
	}
	return Dataset{}, fmt.Errorf("%q: %w", name, ErrUnknownDataset)
}

// Load reads the graph of the entry called name
func (r *Registry) Load(name string) (*signed.Graph, error) {
	d, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return LoadEdgeList(d.Path(r.DataDir), d.Options())
}

// formatValidationError reports the first failing field
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}
	e := validationErrs[0]
	return fmt.Errorf("%s: failed on %q validation (value %v)", e.Namespace(), e.Tag(), e.Value())
}
