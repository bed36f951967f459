// Package appfs embeds the assets the binaries need at run time.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/*
var FS embed.FS
