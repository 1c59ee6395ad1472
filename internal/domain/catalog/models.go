package catalog

import "time"

// Row is implemented by every catalog model the upsert engine can create.
type Row interface {
	RowID() int64
	RowName() string
}

// Record is the {id, name} pair returned to population callers.
type Record struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Category) TableName() string  { return "categories" }
func (c *Category) RowID() int64    { return c.ID }
func (c *Category) RowName() string { return c.Name }

type State struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (State) TableName() string  { return "states" }
func (s *State) RowID() int64    { return s.ID }
func (s *State) RowName() string { return s.Name }

type Board struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"type:text;not null" json:"name"`
	StateID    *int64    `gorm:"index" json:"state_id,omitempty"`
	CategoryID *int64    `gorm:"index" json:"category_id,omitempty"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	IsApproved bool      `gorm:"not null;default:false" json:"is_approved"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Board) TableName() string  { return "boards" }
func (b *Board) RowID() int64    { return b.ID }
func (b *Board) RowName() string { return b.Name }

type University struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"type:text;not null" json:"name"`
	StateID    *int64    `gorm:"index" json:"state_id,omitempty"`
	CategoryID *int64    `gorm:"index" json:"category_id,omitempty"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	IsApproved bool      `gorm:"not null;default:false" json:"is_approved"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (University) TableName() string  { return "universities" }
func (u *University) RowID() int64    { return u.ID }
func (u *University) RowName() string { return u.Name }

// PaperStage is a stage of a competitive exam (prelims, mains, ...).
type PaperStage struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"type:text;not null" json:"name"`
	CategoryID *int64    `gorm:"index" json:"category_id,omitempty"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	IsApproved bool      `gorm:"not null;default:false" json:"is_approved"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (PaperStage) TableName() string  { return "paper_stages" }
func (p *PaperStage) RowID() int64    { return p.ID }
func (p *PaperStage) RowName() string { return p.Name }

// Class is global; boards reach it through BoardClass.
type Class struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Class) TableName() string  { return "classes" }
func (c *Class) RowID() int64    { return c.ID }
func (c *Class) RowName() string { return c.Name }

type Stream struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Stream) TableName() string  { return "streams" }
func (s *Stream) RowID() int64    { return s.ID }
func (s *Stream) RowName() string { return s.Name }

type Semester struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:text;not null" json:"name"`
	UniversityID *int64    `gorm:"index" json:"university_id,omitempty"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Semester) TableName() string  { return "semesters" }
func (s *Semester) RowID() int64    { return s.ID }
func (s *Semester) RowName() string { return s.Name }

type DegreeType struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:text;not null" json:"name"`
	UniversityID *int64    `gorm:"index" json:"university_id,omitempty"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (DegreeType) TableName() string  { return "degree_types" }
func (d *DegreeType) RowID() int64    { return d.ID }
func (d *DegreeType) RowName() string { return d.Name }

// Subject identity is its name plus whichever optional keys are non-null.
type Subject struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:text;not null" json:"name"`
	CategoryID   *int64    `gorm:"index" json:"category_id,omitempty"`
	BoardID      *int64    `gorm:"index" json:"board_id,omitempty"`
	UniversityID *int64    `gorm:"index" json:"university_id,omitempty"`
	ClassID      *int64    `gorm:"index" json:"class_id,omitempty"`
	StreamID     *int64    `gorm:"index" json:"stream_id,omitempty"`
	SemesterID   *int64    `gorm:"index" json:"semester_id,omitempty"`
	DegreeTypeID *int64    `gorm:"index" json:"degree_type_id,omitempty"`
	PaperStageID *int64    `gorm:"index" json:"paper_stage_id,omitempty"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	IsApproved   bool      `gorm:"not null;default:false" json:"is_approved"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Subject) TableName() string  { return "subjects" }
func (s *Subject) RowID() int64    { return s.ID }
func (s *Subject) RowName() string { return s.Name }

type Chapter struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	SubjectID int64     `gorm:"index;not null" json:"subject_id"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Chapter) TableName() string  { return "chapters" }
func (c *Chapter) RowID() int64    { return c.ID }
func (c *Chapter) RowName() string { return c.Name }

// BoardClass links a global Class into a Board. It carries its own active flag.
type BoardClass struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BoardID   int64     `gorm:"index;not null" json:"board_id"`
	ClassID   int64     `gorm:"index;not null" json:"class_id"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (BoardClass) TableName() string { return "board_classes" }

// Models lists every catalog model for migrations.
func Models() []any {
	return []any{
		&Category{}, &State{}, &Board{}, &University{}, &PaperStage{},
		&Class{}, &Stream{}, &Semester{}, &DegreeType{},
		&Subject{}, &Chapter{}, &BoardClass{},
	}
}
