// Package all imports all rule packages to register them.
// Import this package with a blank identifier to enable all rules:
//
//	import _ "github.com/rumdl-go/rumdl/internal/rules/all"
package all

import (
	// Import all rule packages to trigger their init() registration.
	_ "github.com/rumdl-go/rumdl/internal/rules/fencedshellsyntax"
	_ "github.com/rumdl-go/rumdl/internal/rules/md001headinglevels"
	_ "github.com/rumdl-go/rumdl/internal/rules/md009trailingspaces"
	_ "github.com/rumdl-go/rumdl/internal/rules/md010hardtabs"
	_ "github.com/rumdl-go/rumdl/internal/rules/md012multipleblanks"
	_ "github.com/rumdl-go/rumdl/internal/rules/md013linelength"
	_ "github.com/rumdl-go/rumdl/internal/rules/md018nospaceafterhash"
	_ "github.com/rumdl-go/rumdl/internal/rules/md022headingsblanks"
	_ "github.com/rumdl-go/rumdl/internal/rules/md024duplicateheadings"
	_ "github.com/rumdl-go/rumdl/internal/rules/md029orderedlistprefix"
	_ "github.com/rumdl-go/rumdl/internal/rules/md033noinlinehtml"
	_ "github.com/rumdl-go/rumdl/internal/rules/md034barelinks"
	_ "github.com/rumdl-go/rumdl/internal/rules/md038nospaceincode"
	_ "github.com/rumdl-go/rumdl/internal/rules/md040fencedcodelanguage"
	_ "github.com/rumdl-go/rumdl/internal/rules/md047filenewline"
	_ "github.com/rumdl-go/rumdl/internal/rules/md053unuseddefinitions"
	_ "github.com/rumdl-go/rumdl/internal/rules/secretsincodeblock"
)
