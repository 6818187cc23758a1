package printables

import "fmt"

// ---------------------------------------------------------------------------
// Card kinds
// ---------------------------------------------------------------------------

// EmotionCards is a grid of cards, each naming and illustrating a feeling.
type EmotionCards struct {
	Title string        `yaml:"title,omitempty" json:"title,omitempty"`
	Cards []EmotionCard `yaml:"cards" json:"cards"`
}

// EmotionCard is one card of an EmotionCards deck.
type EmotionCard struct {
	Emotion     string `yaml:"emotion" json:"emotion"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	AssetKey    string `yaml:"assetKey,omitempty" json:"assetKey,omitempty"`
}

func (*EmotionCards) Kind() Kind { return KindEmotionCards }
func (*EmotionCards) content()   {}

func (c *EmotionCards) AssetKeys() []string {
	var ks keySet
	for _, card := range c.Cards {
		ks.add(card.AssetKey)
	}
	return ks.keys
}

func (c *EmotionCards) Validate() error {
	if len(c.Cards) == 0 {
		return empty(KindEmotionCards, "card")
	}
	return nil
}

// Flashcards is a grid of question/answer cards. With card backs enabled
// the Back text is printed on the mirrored reverse sheet.
type Flashcards struct {
	Title string      `yaml:"title,omitempty" json:"title,omitempty"`
	Cards []Flashcard `yaml:"cards" json:"cards"`
}

// Flashcard is one card of a Flashcards deck.
type Flashcard struct {
	Front    string `yaml:"front" json:"front"`
	Back     string `yaml:"back,omitempty" json:"back,omitempty"`
	AssetKey string `yaml:"assetKey,omitempty" json:"assetKey,omitempty"`
}

func (*Flashcards) Kind() Kind { return KindFlashcards }
func (*Flashcards) content()   {}

func (c *Flashcards) AssetKeys() []string {
	var ks keySet
	for _, card := range c.Cards {
		ks.add(card.AssetKey)
	}
	return ks.keys
}

func (c *Flashcards) Validate() error {
	if len(c.Cards) == 0 {
		return empty(KindFlashcards, "card")
	}
	return nil
}

// CardGame is a deck where each distinct card may be printed several times.
type CardGame struct {
	Title        string     `yaml:"title,omitempty" json:"title,omitempty"`
	BackAssetKey string     `yaml:"backAssetKey,omitempty" json:"backAssetKey,omitempty"`
	Cards        []GameCard `yaml:"cards" json:"cards"`
}

// GameCard is one distinct card. Count <= 0 means one copy.
type GameCard struct {
	Title    string `yaml:"title" json:"title"`
	Text     string `yaml:"text,omitempty" json:"text,omitempty"`
	Count    int    `yaml:"count,omitempty" json:"count,omitempty"`
	AssetKey string `yaml:"assetKey,omitempty" json:"assetKey,omitempty"`
}

// MaxCardCopies bounds GameCard.Count.
const MaxCardCopies = 100

func (*CardGame) Kind() Kind { return KindCardGame }
func (*CardGame) content()   {}

func (c *CardGame) AssetKeys() []string {
	var ks keySet
	for _, card := range c.Cards {
		ks.add(card.AssetKey)
	}
	ks.add(c.BackAssetKey)
	return ks.keys
}

func (c *CardGame) Validate() error {
	if len(c.Cards) == 0 {
		return empty(KindCardGame, "card")
	}
	for i, card := range c.Cards {
		if card.Count > MaxCardCopies {
			return invalid(KindCardGame, "card %d: count %d exceeds %d", i+1, card.Count, MaxCardCopies)
		}
	}
	return nil
}

// expanded returns the deck with every card repeated Count times.
func (c *CardGame) expanded() []GameCard {
	var out []GameCard
	for _, card := range c.Cards {
		for range max(card.Count, 1) {
			out = append(out, card)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Single-image kinds
// ---------------------------------------------------------------------------

// BoardGame is a full-sheet board image with optional rules on a second page.
type BoardGame struct {
	Title         string   `yaml:"title,omitempty" json:"title,omitempty"`
	BoardAssetKey string   `yaml:"boardAssetKey" json:"boardAssetKey"`
	Instructions  []string `yaml:"instructions,omitempty" json:"instructions,omitempty"`
}

func (*BoardGame) Kind() Kind { return KindBoardGame }
func (*BoardGame) content()   {}

func (c *BoardGame) AssetKeys() []string {
	var ks keySet
	ks.add(c.BoardAssetKey)
	return ks.keys
}

func (c *BoardGame) Validate() error { return nil }

// Certificate is a single landscape award page.
type Certificate struct {
	Title       string `yaml:"title,omitempty" json:"title,omitempty"`
	Recipient   string `yaml:"recipient" json:"recipient"`
	Achievement string `yaml:"achievement,omitempty" json:"achievement,omitempty"`
	// Date is literal text, or "auto" / "auto:FORMAT" for the build date.
	Date               string `yaml:"date,omitempty" json:"date,omitempty"`
	Signer             string `yaml:"signer,omitempty" json:"signer,omitempty"`
	BackgroundAssetKey string `yaml:"backgroundAssetKey" json:"backgroundAssetKey"`
}

func (*Certificate) Kind() Kind { return KindCertificate }
func (*Certificate) content()   {}

func (c *Certificate) AssetKeys() []string {
	var ks keySet
	ks.add(c.BackgroundAssetKey)
	return ks.keys
}

func (c *Certificate) Validate() error {
	if c.Recipient == "" {
		return invalid(KindCertificate, "recipient is required")
	}
	return nil
}

// ColoringPages prints one line-art image per page. Every page is required.
type ColoringPages struct {
	Title string         `yaml:"title,omitempty" json:"title,omitempty"`
	Pages []ColoringPage `yaml:"pages" json:"pages"`
}

// ColoringPage is one page of a ColoringPages set.
type ColoringPage struct {
	Caption  string `yaml:"caption,omitempty" json:"caption,omitempty"`
	AssetKey string `yaml:"assetKey" json:"assetKey"`
}

func (*ColoringPages) Kind() Kind { return KindColoringPages }
func (*ColoringPages) content()   {}

func (c *ColoringPages) AssetKeys() []string {
	var ks keySet
	for _, p := range c.Pages {
		ks.add(p.AssetKey)
	}
	return ks.keys
}

func (c *ColoringPages) Validate() error {
	if len(c.Pages) == 0 {
		return empty(KindColoringPages, "page")
	}
	return nil
}

// Poster is a single page dominated by one image.
type Poster struct {
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
	Subtitle string `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	Caption  string `yaml:"caption,omitempty" json:"caption,omitempty"`
	AssetKey string `yaml:"assetKey" json:"assetKey"`
}

func (*Poster) Kind() Kind { return KindPoster }
func (*Poster) content()   {}

func (c *Poster) AssetKeys() []string {
	var ks keySet
	ks.add(c.AssetKey)
	return ks.keys
}

func (c *Poster) Validate() error { return nil }

// FreePrompt is an image generated from a free-text prompt, printed with an
// optional caption.
type FreePrompt struct {
	Prompt   string `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Caption  string `yaml:"caption,omitempty" json:"caption,omitempty"`
	AssetKey string `yaml:"assetKey" json:"assetKey"`
}

func (*FreePrompt) Kind() Kind { return KindFreePrompt }
func (*FreePrompt) content()   {}

func (c *FreePrompt) AssetKeys() []string {
	var ks keySet
	ks.add(c.AssetKey)
	return ks.keys
}

func (c *FreePrompt) Validate() error { return nil }

// ---------------------------------------------------------------------------
// Block kinds
// ---------------------------------------------------------------------------

// BlockType selects the template of a worksheet block.
type BlockType string

// Worksheet block types.
const (
	BlockHeading     BlockType = "heading"
	BlockPrompt      BlockType = "prompt"
	BlockText        BlockType = "text"
	BlockChecklist   BlockType = "checklist"
	BlockLines       BlockType = "lines"
	BlockRatingScale BlockType = "rating_scale"
	BlockDrawingBox  BlockType = "drawing_box"
	BlockImage       BlockType = "image"
)

// Worksheet limits.
const (
	MaxRuledLines   = 40
	MinRatingLevels = 2
	MaxRatingLevels = 10
)

// Worksheet is an ordered list of typed blocks flowed over portrait pages.
type Worksheet struct {
	Title          string           `yaml:"title,omitempty" json:"title,omitempty"`
	Instructions   string           `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	HeaderAssetKey string           `yaml:"headerAssetKey,omitempty" json:"headerAssetKey,omitempty"`
	Blocks         []WorksheetBlock `yaml:"blocks" json:"blocks"`
}

// WorksheetBlock is one block. Which fields apply depends on Type:
// heading and text use Text; prompt uses Text and Lines; checklist uses
// Items; lines uses Lines; rating_scale uses Text, Levels and Labels;
// drawing_box uses Text and Height; image uses AssetKey, Text and Height.
type WorksheetBlock struct {
	Type     BlockType `yaml:"type" json:"type"`
	Text     string    `yaml:"text,omitempty" json:"text,omitempty"`
	Items    []string  `yaml:"items,omitempty" json:"items,omitempty"`
	Lines    int       `yaml:"lines,omitempty" json:"lines,omitempty"`
	Levels   int       `yaml:"levels,omitempty" json:"levels,omitempty"`
	Labels   []string  `yaml:"labels,omitempty" json:"labels,omitempty"`
	Height   float64   `yaml:"height,omitempty" json:"height,omitempty"`
	AssetKey string    `yaml:"assetKey,omitempty" json:"assetKey,omitempty"`
}

func (*Worksheet) Kind() Kind { return KindWorksheet }
func (*Worksheet) content()   {}

func (c *Worksheet) AssetKeys() []string {
	var ks keySet
	ks.add(c.HeaderAssetKey)
	for _, b := range c.Blocks {
		if b.Type == BlockImage {
			ks.add(b.AssetKey)
		}
	}
	return ks.keys
}

func (c *Worksheet) Validate() error {
	if len(c.Blocks) == 0 {
		return empty(KindWorksheet, "block")
	}
	for i, b := range c.Blocks {
		if err := b.validate(); err != nil {
			return invalid(KindWorksheet, "block %d: %v", i+1, err)
		}
	}
	return nil
}

func (b *WorksheetBlock) validate() error {
	switch b.Type {
	case BlockHeading, BlockText:
		if b.Text == "" {
			return fmt.Errorf("%s block needs text", b.Type)
		}
	case BlockPrompt, BlockDrawingBox:
	case BlockChecklist:
		if len(b.Items) == 0 {
			return fmt.Errorf("checklist needs items")
		}
	case BlockLines:
		if b.Lines > MaxRuledLines {
			return fmt.Errorf("lines %d exceeds %d", b.Lines, MaxRuledLines)
		}
	case BlockRatingScale:
		if b.Levels != 0 && (b.Levels < MinRatingLevels || b.Levels > MaxRatingLevels) {
			return fmt.Errorf("levels %d outside %d..%d", b.Levels, MinRatingLevels, MaxRatingLevels)
		}
	case BlockImage:
		if b.AssetKey == "" {
			return fmt.Errorf("image block needs an asset key")
		}
	default:
		return fmt.Errorf("unknown block type %q", b.Type)
	}
	if b.Height < 0 {
		return fmt.Errorf("negative height")
	}
	return nil
}

// Book is an illustrated story: an optional cover followed by pages of
// image and text.
type Book struct {
	Title         string     `yaml:"title" json:"title"`
	Author        string     `yaml:"author,omitempty" json:"author,omitempty"`
	CoverAssetKey string     `yaml:"coverAssetKey,omitempty" json:"coverAssetKey,omitempty"`
	Pages         []BookPage `yaml:"pages" json:"pages"`
}

// BookPage is one story page.
type BookPage struct {
	Text     string `yaml:"text,omitempty" json:"text,omitempty"`
	AssetKey string `yaml:"assetKey,omitempty" json:"assetKey,omitempty"`
}

func (*Book) Kind() Kind { return KindBook }
func (*Book) content()   {}

func (c *Book) AssetKeys() []string {
	var ks keySet
	ks.add(c.CoverAssetKey)
	for _, p := range c.Pages {
		ks.add(p.AssetKey)
	}
	return ks.keys
}

func (c *Book) Validate() error {
	if len(c.Pages) == 0 {
		return empty(KindBook, "page")
	}
	return nil
}

// BehaviorChart is a tracking grid of behaviors against columns (days by
// default).
type BehaviorChart struct {
	Title          string   `yaml:"title,omitempty" json:"title,omitempty"`
	HeaderAssetKey string   `yaml:"headerAssetKey,omitempty" json:"headerAssetKey,omitempty"`
	Behaviors      []string `yaml:"behaviors" json:"behaviors"`
	Columns        []string `yaml:"columns,omitempty" json:"columns,omitempty"`
	RewardText     string   `yaml:"rewardText,omitempty" json:"rewardText,omitempty"`
}

// DefaultChartColumns is used when a chart names no columns.
var DefaultChartColumns = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Behavior chart limits.
const (
	MaxChartRows    = 15
	MaxChartColumns = 10
)

func (*BehaviorChart) Kind() Kind { return KindBehaviorChart }
func (*BehaviorChart) content()   {}

func (c *BehaviorChart) AssetKeys() []string {
	var ks keySet
	ks.add(c.HeaderAssetKey)
	return ks.keys
}

func (c *BehaviorChart) Validate() error {
	if len(c.Behaviors) == 0 {
		return empty(KindBehaviorChart, "behavior")
	}
	if len(c.Behaviors) > MaxChartRows {
		return invalid(KindBehaviorChart, "%d behaviors exceeds %d", len(c.Behaviors), MaxChartRows)
	}
	if len(c.Columns) > MaxChartColumns {
		return invalid(KindBehaviorChart, "%d columns exceeds %d", len(c.Columns), MaxChartColumns)
	}
	return nil
}

func (c *BehaviorChart) columns() []string {
	if len(c.Columns) == 0 {
		return DefaultChartColumns
	}
	return c.Columns
}

// VisualSchedule is an ordered list of illustrated steps.
type VisualSchedule struct {
	Title          string         `yaml:"title,omitempty" json:"title,omitempty"`
	HeaderAssetKey string         `yaml:"headerAssetKey,omitempty" json:"headerAssetKey,omitempty"`
	Steps          []ScheduleStep `yaml:"steps" json:"steps"`
}

// ScheduleStep is one step of a VisualSchedule.
type ScheduleStep struct {
	Label    string `yaml:"label" json:"label"`
	Time     string `yaml:"time,omitempty" json:"time,omitempty"`
	AssetKey string `yaml:"assetKey,omitempty" json:"assetKey,omitempty"`
}

func (*VisualSchedule) Kind() Kind { return KindVisualSchedule }
func (*VisualSchedule) content()   {}

func (c *VisualSchedule) AssetKeys() []string {
	var ks keySet
	ks.add(c.HeaderAssetKey)
	for _, s := range c.Steps {
		ks.add(s.AssetKey)
	}
	return ks.keys
}

func (c *VisualSchedule) Validate() error {
	if len(c.Steps) == 0 {
		return empty(KindVisualSchedule, "step")
	}
	return nil
}

var (
	_ Content = (*EmotionCards)(nil)
	_ Content = (*Flashcards)(nil)
	_ Content = (*CardGame)(nil)
	_ Content = (*BoardGame)(nil)
	_ Content = (*Certificate)(nil)
	_ Content = (*ColoringPages)(nil)
	_ Content = (*Poster)(nil)
	_ Content = (*FreePrompt)(nil)
	_ Content = (*Worksheet)(nil)
	_ Content = (*Book)(nil)
	_ Content = (*BehaviorChart)(nil)
	_ Content = (*VisualSchedule)(nil)
)
