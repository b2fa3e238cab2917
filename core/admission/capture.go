package admission

// CardAspectRatio is the width/height ratio of the capture guide overlay
// (ID-1 card geometry, 85.60mm x 53.98mm).
const CardAspectRatio = 85.60 / 53.98

// CropRect computes the largest centered rectangle of the given aspect ratio
// that fits inside a captured frame. Used to crop a camera frame to the guide
// overlay before upload.
func CropRect(frameW, frameH int, aspect float64) (x, y, w, h int) {
	if frameW <= 0 || frameH <= 0 || aspect <= 0 {
		return 0, 0, 0, 0
	}
	w, h = frameW, int(float64(frameW)/aspect)
	if h > frameH {
		h = frameH
		w = int(float64(frameH) * aspect)
	}
	return (frameW - w) / 2, (frameH - h) / 2, w, h
}

// Progress tracks the simulated upload-progress percentage shown while an
// extraction call is in flight. It only moves forward within an attempt
// (advanced on a fixed timer, not measured) and resets to 0 on failure.
type Progress struct {
	pct int
}

func (p *Progress) Percent() int { return p.pct }

// Begin starts a new attempt.
func (p *Progress) Begin() { p.pct = 10 }

// TickUpload advances through the upload phase, capped at 50.
func (p *Progress) TickUpload() { p.advance(p.pct+20, 50) }

// BeginProcessing marks the upload done and processing started.
func (p *Progress) BeginProcessing() { p.advance(60, 60) }

// TickProcessing advances through the processing phase, capped at 90.
func (p *Progress) TickProcessing() { p.advance(p.pct+10, 90) }

// Done completes the attempt.
func (p *Progress) Done() { p.advance(100, 100) }

// Fail aborts the attempt; the only backward move.
func (p *Progress) Fail() { p.pct = 0 }

func (p *Progress) advance(to, limit int) {
	if to > limit {
		to = limit
	}
	if to > p.pct {
		p.pct = to
	}
}
