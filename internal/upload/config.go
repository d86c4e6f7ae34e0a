package upload

// UploadConfig is the immutable, per-request configuration resolved at
// route dispatch — spec.md §3 UploadConfig plus §4.8 Config Resolution.
type UploadConfig struct {
	Quicksand bool
	ClamAV    bool

	// FileSizeLimitKB, nil means unlimited. Compared against
	// Declared.Size/1000 — not SI kilobytes, a literal integer division.
	FileSizeLimitKB *int

	// FilenameLengthLimit, nil means unlimited.
	FilenameLengthLimit *int

	WhitelistName string
	Whitelist     map[string]struct{}

	Sanitization         bool
	KeepOriginalFilename bool
	YaraFileLocation     string
}

// RouteOverride carries the subset of fields a route may override; a nil
// pointer/field means "inherit from global config" (spec.md §6
// decorator/route-config surface).
type RouteOverride struct {
	Quicksand            *bool
	FileSizeLimitKB      *int
	FilenameLengthLimit  *int
	WhitelistName        *string
	Whitelist            map[string]struct{}
}

// Resolve overlays a route-level override on top of a global config and
// replaces Whitelist with the named set unless WhitelistName is CUSTOM.
// Per-route overlays are computed once at route-registration time, not per
// request (spec.md §5 Shared resources).
func Resolve(global UploadConfig, override *RouteOverride) UploadConfig {
	cfg := global

	if override != nil {
		if override.Quicksand != nil {
			cfg.Quicksand = *override.Quicksand
		}
		if override.FileSizeLimitKB != nil {
			cfg.FileSizeLimitKB = override.FileSizeLimitKB
		}
		if override.FilenameLengthLimit != nil {
			cfg.FilenameLengthLimit = override.FilenameLengthLimit
		}
		if override.WhitelistName != nil {
			cfg.WhitelistName = *override.WhitelistName
		}
		if override.Whitelist != nil {
			cfg.Whitelist = override.Whitelist
		}
	}

	if cfg.WhitelistName != "CUSTOM" {
		named := ResolveNamedWhitelist(cfg.WhitelistName)
		set := make(map[string]struct{}, len(named))
		for _, m := range named {
			set[m] = struct{}{}
		}
		cfg.Whitelist = set
	}

	return cfg
}

func whitelisted(cfg UploadConfig, mime string) bool {
	_, ok := cfg.Whitelist[mime]
	return ok
}
