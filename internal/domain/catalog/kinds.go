package catalog

import "sort"

type Kind string

const (
	KindCategories   Kind = "categories"
	KindBoards       Kind = "boards"
	KindUniversities Kind = "universities"
	KindPaperStages  Kind = "paper_stages"
	KindClasses      Kind = "classes"
	KindStreams      Kind = "streams"
	KindSemesters    Kind = "semesters"
	KindDegreeTypes  Kind = "degree_types"
	KindSubjects     Kind = "subjects"
	KindChapters     Kind = "chapters"
)

var (
	CategoriesKey   = KeySpec{Table: "categories", NameColumn: "name", RefColumn: "category_id"}
	StatesKey       = KeySpec{Table: "states", NameColumn: "name", RefColumn: "state_id"}
	BoardsKey       = KeySpec{Table: "boards", NameColumn: "name", Columns: []string{"state_id", "category_id"}, RefColumn: "board_id"}
	UniversitiesKey = KeySpec{Table: "universities", NameColumn: "name", Columns: []string{"state_id", "category_id"}, RefColumn: "university_id"}
	PaperStagesKey  = KeySpec{Table: "paper_stages", NameColumn: "name", Columns: []string{"category_id"}, RefColumn: "paper_stage_id"}
	ClassesKey      = KeySpec{Table: "classes", NameColumn: "name", RefColumn: "class_id"}
	StreamsKey      = KeySpec{Table: "streams", NameColumn: "name", RefColumn: "stream_id"}
	SemestersKey    = KeySpec{Table: "semesters", NameColumn: "name", Columns: []string{"university_id"}, RefColumn: "semester_id"}
	DegreeTypesKey  = KeySpec{Table: "degree_types", NameColumn: "name", Columns: []string{"university_id"}, RefColumn: "degree_type_id"}
	SubjectsKey     = KeySpec{
		Table:      "subjects",
		NameColumn: "name",
		Columns: []string{
			"category_id", "board_id", "university_id", "class_id",
			"stream_id", "semester_id", "degree_type_id", "paper_stage_id",
		},
		RefColumn: "subject_id",
	}
	ChaptersKey     = KeySpec{Table: "chapters", NameColumn: "name", Columns: []string{"subject_id"}}
	BoardClassesKey = KeySpec{Table: "board_classes", Columns: []string{"board_id", "class_id"}}
)

// Tables is every uniqueness-bearing table, parents before children.
func Tables() []KeySpec {
	return []KeySpec{
		CategoriesKey, StatesKey, BoardsKey, UniversitiesKey, PaperStagesKey,
		ClassesKey, StreamsKey, SemestersKey, DegreeTypesKey,
		SubjectsKey, ChaptersKey, BoardClassesKey,
	}
}

// TableForColumn resolves a foreign-key column to the table it references.
func TableForColumn(col string) (KeySpec, bool) {
	for _, k := range Tables() {
		if k.RefColumn != "" && k.RefColumn == col {
			return k, true
		}
	}
	return KeySpec{}, false
}

// ColumnLabel is the human label of a scope column used in generator context.
func ColumnLabel(col string) string {
	switch col {
	case "category_id":
		return "Category"
	case "state_id":
		return "State"
	case "board_id":
		return "Board"
	case "university_id":
		return "University"
	case "paper_stage_id":
		return "Exam stage"
	case "class_id":
		return "Class"
	case "stream_id":
		return "Stream"
	case "semester_id":
		return "Semester"
	case "degree_type_id":
		return "Degree"
	case "subject_id":
		return "Subject"
	default:
		return col
	}
}

// KindSpec is everything the population engine needs to know about a kind.
type KindSpec struct {
	Kind     Kind
	Singular string
	Key      KeySpec
	// HasApproval marks tables with an is_approved column.
	HasApproval bool
	// RequestColumns are the scope ids a request may carry: the stored key
	// columns plus context-only ids such as board_id for classes.
	RequestColumns []string
	// Anchors are alternative column sets; a request must fill at least one.
	Anchors [][]string
	// LinkBoard: rows are global and get linked to the request's board.
	LinkBoard bool
	New       func(name string, scope Scope) Row
}

// Satisfied reports whether scope fills one of the anchors.
func (k KindSpec) Satisfied(scope Scope) bool {
	if len(k.Anchors) == 0 {
		return true
	}
	for _, a := range k.Anchors {
		if scope.Has(a...) {
			return true
		}
	}
	return false
}

var kinds = map[Kind]KindSpec{
	KindCategories: {
		Kind: KindCategories, Singular: "category", Key: CategoriesKey,
		New: func(name string, _ Scope) Row { return &Category{Name: name, IsActive: true} },
	},
	KindBoards: {
		Kind: KindBoards, Singular: "board", Key: BoardsKey, HasApproval: true,
		RequestColumns: []string{"state_id", "category_id"},
		Anchors:        [][]string{{"state_id"}},
		New: func(name string, s Scope) Row {
			return &Board{Name: name, StateID: s.Ptr("state_id"), CategoryID: s.Ptr("category_id"), IsActive: true, IsApproved: true}
		},
	},
	KindUniversities: {
		Kind: KindUniversities, Singular: "university", Key: UniversitiesKey, HasApproval: true,
		RequestColumns: []string{"state_id", "category_id"},
		Anchors:        [][]string{{"state_id"}},
		New: func(name string, s Scope) Row {
			return &University{Name: name, StateID: s.Ptr("state_id"), CategoryID: s.Ptr("category_id"), IsActive: true, IsApproved: true}
		},
	},
	KindPaperStages: {
		Kind: KindPaperStages, Singular: "paper stage", Key: PaperStagesKey, HasApproval: true,
		RequestColumns: []string{"category_id"},
		Anchors:        [][]string{{"category_id"}},
		New: func(name string, s Scope) Row {
			return &PaperStage{Name: name, CategoryID: s.Ptr("category_id"), IsActive: true, IsApproved: true}
		},
	},
	KindClasses: {
		Kind: KindClasses, Singular: "class", Key: ClassesKey,
		RequestColumns: []string{"board_id"},
		Anchors:        [][]string{{"board_id"}},
		LinkBoard:      true,
		New:            func(name string, _ Scope) Row { return &Class{Name: name, IsActive: true} },
	},
	KindStreams: {
		Kind: KindStreams, Singular: "stream", Key: StreamsKey,
		RequestColumns: []string{"board_id", "class_id"},
		Anchors:        [][]string{{"board_id", "class_id"}},
		New:            func(name string, _ Scope) Row { return &Stream{Name: name, IsActive: true} },
	},
	KindSemesters: {
		Kind: KindSemesters, Singular: "semester", Key: SemestersKey,
		RequestColumns: []string{"university_id"},
		Anchors:        [][]string{{"university_id"}},
		New: func(name string, s Scope) Row {
			return &Semester{Name: name, UniversityID: s.Ptr("university_id"), IsActive: true}
		},
	},
	KindDegreeTypes: {
		Kind: KindDegreeTypes, Singular: "degree type", Key: DegreeTypesKey,
		RequestColumns: []string{"university_id"},
		Anchors:        [][]string{{"university_id"}},
		New: func(name string, s Scope) Row {
			return &DegreeType{Name: name, UniversityID: s.Ptr("university_id"), IsActive: true}
		},
	},
	KindSubjects: {
		Kind: KindSubjects, Singular: "subject", Key: SubjectsKey, HasApproval: true,
		RequestColumns: SubjectsKey.Columns,
		Anchors:        [][]string{{"board_id", "class_id"}, {"university_id"}, {"paper_stage_id"}},
		New: func(name string, s Scope) Row {
			return &Subject{
				Name:         name,
				CategoryID:   s.Ptr("category_id"),
				BoardID:      s.Ptr("board_id"),
				UniversityID: s.Ptr("university_id"),
				ClassID:      s.Ptr("class_id"),
				StreamID:     s.Ptr("stream_id"),
				SemesterID:   s.Ptr("semester_id"),
				DegreeTypeID: s.Ptr("degree_type_id"),
				PaperStageID: s.Ptr("paper_stage_id"),
				IsActive:     true,
				IsApproved:   true,
			}
		},
	},
	KindChapters: {
		Kind: KindChapters, Singular: "chapter", Key: ChaptersKey,
		RequestColumns: []string{"subject_id"},
		Anchors:        [][]string{{"subject_id"}},
		New: func(name string, s Scope) Row {
			id, _ := s.Get("subject_id")
			return &Chapter{Name: name, SubjectID: id, IsActive: true}
		},
	},
}

func Lookup(kind Kind) (KindSpec, bool) {
	k, ok := kinds[kind]
	return k, ok
}

func AllKinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ScopeColumns lists every column a request may use to place a row.
func ScopeColumns() []string {
	var out []string
	for _, k := range Tables() {
		if k.RefColumn != "" {
			out = append(out, k.RefColumn)
		}
	}
	return out
}
