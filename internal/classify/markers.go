package classify

import (
	"fmt"
	"os"

	"github.com/ppiankov/verifyhub/internal/model"
	"gopkg.in/yaml.v3"
)

// LoadMarkers reads a marker set from a YAML file. Lists left out of the file
// keep the values from base, so a file may override a single list.
func LoadMarkers(path string, base model.MarkerSet) (model.MarkerSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read markers: %w", err)
	}

	set := base
	if err := yaml.Unmarshal(data, &set); err != nil {
		return base, fmt.Errorf("parse markers: %w", err)
	}

	if err := CheckMarkers(set); err != nil {
		return base, err
	}
	return set, nil
}

// CheckMarkers rejects marker sets that would make every page pass or fail
func CheckMarkers(set model.MarkerSet) error {
	if set.Version == "" {
		return fmt.Errorf("marker set has no version")
	}
	if len(set.Certificate) == 0 {
		return fmt.Errorf("marker set %s: certificate markers are required", set.Version)
	}
	for _, list := range [][]string{set.NotFound, set.Restricted, set.Certificate, set.SocialUnavailable, set.Ownership} {
		for _, m := range list {
			if m == "" {
				return fmt.Errorf("marker set %s: empty marker", set.Version)
			}
		}
	}
	return nil
}
