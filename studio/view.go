package studio

import "github.com/chaos-io/bgswap/compose"

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseUploading
	PhaseComposited
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseUploading:
		return "uploading"
	case PhaseComposited:
		return "composited"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// View 界面层需要的可见状态
type View struct {
	Phase           Phase
	JobID           string
	Hover           bool
	PreviewVisible  bool
	ControlsVisible bool
	LoadingVisible  bool
	ErrorVisible    bool
	ErrorText       string
	ActiveSwatch    int
	Background      compose.Background
	// Preview data:<mime>;base64,... 原图预览
	Preview string
}

func idleView() View {
	return View{
		Phase:        PhaseIdle,
		ActiveSwatch: compose.Transparent.SwatchIndex(),
		Background:   compose.Transparent,
	}
}
