// Package source installs goccy/go-json as the process-wide JSON driver.
// Blank-import it to upgrade from the encoding/json default.
package source

import (
	skemata "github.com/reoring/skemata"
	drvgojson "github.com/reoring/skemata/source/gojson"
)

// init in a separate package to avoid import cycle in root.
func init() { skemata.SetJSONDriver(drvgojson.Driver()) }
