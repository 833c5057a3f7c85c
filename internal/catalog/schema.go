// Package catalog holds the static resources the retrieval pipeline treats
// as bit-exact: table/column metadata, synonym groups, country codes, and
// stopword lists. None of it is discovered at runtime (spec §6).
package catalog

// Column describes one queryable column of an entity table.
type Column struct {
	Name        string
	Description string
}

// TableSchema is the static metadata for one entity's backing SQL table.
type TableSchema struct {
	Entity      string
	Table       string
	IDColumn    string
	Columns     []Column
	ForeignKeys map[string]string // column -> "other_table.column"
}

// entityTables is the closed catalog of entity-type → table metadata. It is
// consulted instead of querying information_schema at runtime.
var entityTables = map[string]TableSchema{
	"patent": {
		Entity:   "patent",
		Table:    "patents",
		IDColumn: "documentid",
		Columns: []Column{
			{"documentid", "patent document id"},
			{"title", "patent title"},
			{"summary", "abstract text"},
			{"appn_date", "application date"},
			{"ntcd", "applicant nationality code"},
			{"citations", "forward citation count"},
		},
		ForeignKeys: map[string]string{"applicant_id": "applicants.id"},
	},
	"project": {
		Entity:   "project",
		Table:    "projects",
		IDColumn: "sbjt_id",
		Columns: []Column{
			{"sbjt_id", "project subject id"},
			{"title", "project title"},
			{"summary", "project summary"},
			{"year", "project year"},
			{"org_name", "performing organization"},
		},
		ForeignKeys: map[string]string{"org_id": "organizations.id"},
	},
	"equip": {
		Entity:   "equip",
		Table:    "equipment",
		IDColumn: "equip_id",
		Columns: []Column{
			{"equip_id", "equipment id"},
			{"name", "equipment name"},
			{"org_name", "owning organization"},
			{"region", "equipment region"},
		},
	},
	"proposal": {
		Entity:   "proposal",
		Table:    "proposals",
		IDColumn: "conts_id",
		Columns: []Column{
			{"conts_id", "proposal contents id"},
			{"title", "proposal title"},
			{"summary", "proposal summary"},
			{"org_name", "lead organization"},
		},
	},
	"evalp": {
		Entity:   "evalp",
		Table:    "evaluations",
		IDColumn: "evalp_id",
		Columns: []Column{
			{"evalp_id", "evaluation id"},
			{"sbjt_id", "evaluated project id"},
			{"score", "evaluation score"},
		},
	},
	"evalp_pref": {
		Entity:   "evalp_pref",
		Table:    "evaluation_preferences",
		IDColumn: "pref_id",
		Columns: []Column{
			{"pref_id", "preference id"},
			{"sbjt_id", "evaluated project id"},
			{"advantage", "advantage note"},
		},
	},
	"evalp_detail": {
		Entity:   "evalp_detail",
		Table:    "evaluation_details",
		IDColumn: "detail_id",
		Columns: []Column{
			{"detail_id", "detail row id"},
			{"evalp_id", "parent evaluation id"},
			{"criterion", "scoring criterion"},
		},
	},
	"ancm": {
		Entity:   "ancm",
		Table:    "announcements",
		IDColumn: "ancm_id",
		Columns: []Column{
			{"ancm_id", "announcement id"},
			{"title", "announcement title"},
			{"summary", "announcement summary"},
		},
	},
}

// orgLinkTables maps an entity to the organization-link table used by
// ranking/impact_ranking templates (spec §4.5).
var orgLinkTables = map[string]string{
	"patent":  "applicants",
	"project": "project_organizations",
}

// DefaultEntityTypes is the domain's fallback entity set when neither the
// analyzer nor the scout narrow it (spec invariant §3.2).
var DefaultEntityTypes = []string{"patent", "project"}

// AllEntityTypes is the closed set named in spec §3.
var AllEntityTypes = []string{
	"patent", "project", "equip", "proposal", "evalp", "evalp_pref",
	"evalp_detail", "ancm", "tech", "applicant", "ipc", "org", "gis", "k12", "6t",
}

// Table returns the static schema for an entity type, ok=false if unknown.
func Table(entity string) (TableSchema, bool) {
	t, ok := entityTables[entity]
	return t, ok
}

// OrgLinkTable returns the organization-link table for ranking aggregation
// over an entity, ok=false if the entity has no ranking template.
func OrgLinkTable(entity string) (string, bool) {
	t, ok := orgLinkTables[entity]
	return t, ok
}

// SearchableColumns returns the columns a keyword disjunction should be
// built against for an entity (title/summary-shaped text columns).
func SearchableColumns(entity string) []string {
	switch entity {
	case "patent", "project", "proposal", "ancm":
		return []string{"title", "summary"}
	case "equip":
		return []string{"name"}
	default:
		return []string{"title"}
	}
}
