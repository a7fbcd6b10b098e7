package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Properties is the optional YAML properties file. The general section names
// the database profile to use:
//
//	general:
//	  searchpath: /data/sdh
//	  sdhfilename: sdh.txt
//	  db: production
//	databases:
//	  production:
//	    host: db.example.org
//	    database: floodplains
//	    user: loader
//	    floodplain_tablename: floodplain
//	    sdh_metadata_tablename: sdh_metadata
//	    truncate_sdh_table: true
type Properties struct {
	General   GeneralProperties             `yaml:"general"`
	Databases map[string]DatabaseProperties `yaml:"databases"`
}

type GeneralProperties struct {
	SearchPath    string `yaml:"searchpath"`
	SDHFilename   string `yaml:"sdhfilename"`
	Interpolation string `yaml:"interpolation"`
	DB            string `yaml:"db"`
}

type DatabaseProperties struct {
	Host             string `yaml:"host"`
	Port             string `yaml:"port"`
	Database         string `yaml:"database"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	FloodplainTable  string `yaml:"floodplain_tablename"`
	SDHMetadataTable string `yaml:"sdh_metadata_tablename"`
	TruncateSDHTable bool   `yaml:"truncate_sdh_table"`
}

// ReadProperties parses the YAML properties file at path.
func ReadProperties(path string) (*Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read properties: %w", err)
	}
	var p Properties
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse properties %s: %w", path, err)
	}
	return &p, nil
}

// Database returns the profile selected by general.db. No selection yields an
// empty profile; selecting a profile that does not exist is an error.
func (p *Properties) Database() (DatabaseProperties, error) {
	if p.General.DB == "" {
		return DatabaseProperties{}, nil
	}
	db, ok := p.Databases[p.General.DB]
	if !ok {
		return DatabaseProperties{}, fmt.Errorf("database profile %q not found in properties", p.General.DB)
	}
	return db, nil
}
