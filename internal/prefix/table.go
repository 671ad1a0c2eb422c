package prefix

// rule lists, per browser, the semver constraint of versions that still
// require a vendor prefix.
type rule struct {
	prefix string
	needs  map[string]string
}

// propertyRules maps an unprefixed property to the prefixes it may need.
var propertyRules = map[string][]rule{
	"appearance": {
		{"-webkit-", map[string]string{"chrome": "< 84", "edge": "< 84", "safari": "< 15.4", "ios_saf": "< 15.4"}},
		{"-moz-", map[string]string{"firefox": "< 80"}},
	},
	"backdrop-filter": {
		{"-webkit-", map[string]string{"safari": "< 18", "ios_saf": "< 18"}},
	},
	"backface-visibility": {
		{"-webkit-", map[string]string{"safari": "< 15.4", "ios_saf": "< 15.4"}},
	},
	"box-decoration-break": {
		{"-webkit-", map[string]string{"chrome": "*", "edge": "*", "safari": "*", "ios_saf": "*"}},
	},
	"clip-path": {
		{"-webkit-", map[string]string{"safari": "< 13.1", "ios_saf": "< 13.4"}},
	},
	"hyphens": {
		{"-webkit-", map[string]string{"chrome": "< 88", "edge": "< 88", "safari": "< 17", "ios_saf": "< 17"}},
	},
	"mask-image": {
		{"-webkit-", map[string]string{"chrome": "< 120", "edge": "< 120", "safari": "< 15.4", "ios_saf": "< 15.4"}},
	},
	"tab-size": {
		{"-moz-", map[string]string{"firefox": "< 91"}},
	},
	"text-size-adjust": {
		{"-webkit-", map[string]string{"chrome": "*", "edge": "*", "safari": "*", "ios_saf": "*"}},
	},
	"user-select": {
		{"-webkit-", map[string]string{"safari": "*", "ios_saf": "*"}},
		{"-moz-", map[string]string{"firefox": "< 69"}},
	},
}

// valueRules maps property → unprefixed keyword value → prefixes.
var valueRules = map[string]map[string][]rule{
	"position": {
		"sticky": {
			{"-webkit-", map[string]string{"safari": "< 13", "ios_saf": "< 13"}},
		},
	},
}

// DefaultTargets is used when no browser targets are configured.
var DefaultTargets = []string{"chrome 100", "edge 100", "firefox 100", "safari 14"}
