package study

// PageState is a View that records what a rendered page should show.
// Templates read its fields; a Session writes them.
type PageState struct {
	NormalHidden    bool
	StudyHidden     bool
	Question        string
	Answer          string
	Flipped         bool
	ControlsVisible bool
	ToggleLabel     string
}

// NewPageState returns the state of a freshly loaded page: browse mode showing.
func NewPageState() *PageState {
	return &PageState{
		StudyHidden: true,
		ToggleLabel: LabelEnter,
	}
}

func (p *PageState) ShowNormalMode() {
	p.NormalHidden = false
	p.StudyHidden = true
}

func (p *PageState) ShowStudyMode() {
	p.NormalHidden = true
	p.StudyHidden = false
}

func (p *PageState) ShowCard(question, answer string) {
	p.Question = question
	p.Answer = answer
}

func (p *PageState) SetFlipped(flipped bool) {
	p.Flipped = flipped
}

func (p *PageState) SetControlsVisible(visible bool) {
	p.ControlsVisible = visible
}

func (p *PageState) SetToggleLabel(label string) {
	p.ToggleLabel = label
}
