// Package snapshot loads SDKDB snapshots into generic trees ready for
// comparison.
//
// Locations are either local paths or s3://bucket/object URLs. JSON (the
// default) is validated & decoded with gjson, files ending in .yaml or .yml
// are decoded with yaml.v3.
package snapshot
