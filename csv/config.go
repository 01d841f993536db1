package csv

import "github.com/urbint/csvstream/utils"

// LoadOptionsFile builds Options from NewOptions' defaults, then
// overlays the settings found in a JSON or YAML file at filePath. A
// setting absent from the file keeps its struct-tag default, so a
// config file only needs to name the fields it overrides.
//
// renames, if given, is applied to the loaded settings map before it is
// read onto Options — a migration path for a config file written
// against an older, differently-named key (e.g. moving a top-level
// "decimal" key to the dotted path "NumericFormat.Decimal" after a
// field was nested). Only the first MapTransform in renames is applied.
func LoadOptionsFile(filePath string, renames ...utils.MapTransform) (*Options, error) {
	settings, err := utils.ReadConfig(filePath)
	if err != nil {
		return nil, err
	}
	if len(renames) > 0 {
		settings, err = utils.CopyMap(settings, renames[0])
		if err != nil {
			return nil, err
		}
	}
	opts := NewOptions()
	utils.MapToStruct(settings, opts, "json")
	return opts, nil
}

// SaveOptionsFile writes opts to filePath as JSON or YAML, chosen by
// extension, the way the teacher externalizes index settings for its
// Elasticsearch writer.
func SaveOptionsFile(filePath string, opts *Options) error {
	return utils.SaveConfig(filePath, opts)
}
