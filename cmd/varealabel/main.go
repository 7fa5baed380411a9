// Command varealabel splits the Benson 2014 visual area label of FreeSurfer
// subjects into one label file per area.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mrsinham/slicemovie/internal/discover"
	"github.com/mrsinham/slicemovie/internal/label"
	"github.com/mrsinham/slicemovie/internal/logging"
)

// version is set at build time via -ldflags
var version = "dev"

var hemispheres = []string{"lh", "rh"}

// fileConfig is the YAML layout accepted by --config.
type fileConfig struct {
	FSDir     string   `yaml:"fs_dir"`
	Subjects  []string `yaml:"subjects"`
	AtlasName string   `yaml:"atlas_name"`
	Prefix    string   `yaml:"prefix"`

	// Areas maps label values to area names. Empty means Benson14.
	Areas map[int]string `yaml:"areas"`
}

// atlas returns the configured areas, or the Benson 2014 atlas.
func (c fileConfig) atlas() label.Atlas {
	if len(c.Areas) == 0 {
		return label.Benson14
	}
	return label.AtlasFromMap(c.Areas)
}

// loadConfig decodes a YAML file over cfg.
func loadConfig(path string, cfg *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func main() {
	fsDir := flag.String("fs-dir", "", "FreeSurfer SUBJECTS_DIR (required)")
	subjects := flag.String("subjects", "", "Comma-separated subject names (required)")
	atlasName := flag.String("atlas-name", "benson14_varea-0001", "Substring naming the atlas label files")
	prefix := flag.String("prefix", "b14", "Prefix of the generated label names")
	configFile := flag.String("config", "", "Load settings from a YAML file")
	quiet := flag.Bool("quiet", false, "Only print warnings and errors")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("varealabel %s\n", version)
		os.Exit(0)
	}

	cfg := fileConfig{AtlasName: *atlasName, Prefix: *prefix}
	if *configFile != "" {
		if err := loadConfig(*configFile, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fs-dir":
			cfg.FSDir = *fsDir
		case "subjects":
			cfg.Subjects = discover.SplitList(*subjects)
		case "atlas-name":
			cfg.AtlasName = *atlasName
		case "prefix":
			cfg.Prefix = *prefix
		}
	})

	if cfg.FSDir == "" || len(cfg.Subjects) == 0 {
		fmt.Fprintf(os.Stderr, "Error: --fs-dir and --subjects are required\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := logging.New(logging.Config{Quiet: *quiet})
	for _, sub := range cfg.Subjects {
		if err := splitSubject(cfg, sub, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// splitSubject writes the per-area labels of both hemispheres of sub.
func splitSubject(cfg fileConfig, sub string, log *logging.Logger) error {
	labelDir := filepath.Join(cfg.FSDir, sub, "label")
	customDir := filepath.Join(labelDir, "custom")

	for _, hemi := range hemispheres {
		matches, err := discover.Find(labelDir, []string{cfg.AtlasName, ".label", hemi}, nil, true)
		if err != nil {
			return fmt.Errorf("subject %s: %w", sub, err)
		}
		if len(matches) != 1 {
			return fmt.Errorf("subject %s: expected one %s label for %s, found %d", sub, cfg.AtlasName, hemi, len(matches))
		}

		f, err := label.Read(matches[0])
		if err != nil {
			return fmt.Errorf("subject %s: %w", sub, err)
		}
		outputs := label.Split(f, sub, hemi, cfg.Prefix, cfg.atlas())
		if err := label.WriteAll(customDir, outputs); err != nil {
			return fmt.Errorf("subject %s: %w", sub, err)
		}
		for _, o := range outputs {
			log.Debugf("%s: %d vertices", o.Name, o.Count)
		}
		log.Infof("%s %s: wrote %d labels to %s", sub, hemi, len(outputs), customDir)
	}
	return nil
}
