package core

import (
	"fmt"
	"strings"
)

type StackFrame struct {
	Function string
	Pos      Position
}

// RuntimeError stops a run. Err is one of the runtime sentinels; Frames
// lists the innermost frame first.
type RuntimeError struct {
	Err       error
	Message   string
	CodeFrame string
	Frames    []StackFrame
}

// Head and tail counts apply to collapsed frame runs.
const (
	runtimeErrorFrameHead = 8
	runtimeErrorFrameTail = 8
)

// frameRun is a stretch of identical consecutive frames, the shape a
// method calling itself from one site leaves on the stack.
type frameRun struct {
	frame StackFrame
	count int
}

func collapseFrames(frames []StackFrame) []frameRun {
	runs := make([]frameRun, 0, len(frames))
	for _, frame := range frames {
		if n := len(runs); n > 0 && runs[n-1].frame == frame {
			runs[n-1].count++
			continue
		}
		runs = append(runs, frameRun{frame: frame, count: 1})
	}
	return runs
}

func (r frameRun) render(b *strings.Builder) {
	b.WriteString("\n  in ")
	b.WriteString(r.frame.Function)
	switch pos := r.frame.Pos; {
	case pos.Line > 0 && pos.Column > 0:
		fmt.Fprintf(b, " at line %d, column %d", pos.Line, pos.Column)
	case pos.Line > 0:
		fmt.Fprintf(b, " at line %d", pos.Line)
	}
	if r.count > 1 {
		fmt.Fprintf(b, " [%d recursive calls]", r.count)
	}
}

func (re *RuntimeError) Error() string {
	var b strings.Builder
	if re.Err != nil {
		b.WriteString(re.Err.Error())
		b.WriteString(": ")
	}
	b.WriteString(re.Message)
	if re.CodeFrame != "" {
		b.WriteString("\n")
		b.WriteString(re.CodeFrame)
	}

	runs := collapseFrames(re.Frames)
	if len(runs) <= runtimeErrorFrameHead+runtimeErrorFrameTail {
		for _, run := range runs {
			run.render(&b)
		}
		return b.String()
	}

	for _, run := range runs[:runtimeErrorFrameHead] {
		run.render(&b)
	}
	hidden := runs[runtimeErrorFrameHead : len(runs)-runtimeErrorFrameTail]
	omitted := 0
	for _, run := range hidden {
		omitted += run.count
	}
	fmt.Fprintf(&b, "\n  ... %d frames omitted ...", omitted)
	for _, run := range runs[len(runs)-runtimeErrorFrameTail:] {
		run.render(&b)
	}
	return b.String()
}

func (re *RuntimeError) Unwrap() error {
	return re.Err
}

func (exec *Execution) errorAt(kind error, pos Position, format string, args ...any) error {
	frames := make([]StackFrame, 0, len(exec.callStack)+1)
	if len(exec.callStack) > 0 {
		// innermost frame reports where the failure happened, the rest where
		// each frame was called from
		current := exec.callStack[len(exec.callStack)-1]
		frames = append(frames, StackFrame{Function: current.Function, Pos: pos})
		for i := len(exec.callStack) - 1; i >= 0; i-- {
			cf := exec.callStack[i]
			frames = append(frames, StackFrame{Function: cf.Function, Pos: cf.Pos})
		}
	} else {
		frames = append(frames, StackFrame{Function: "<entry>", Pos: pos})
	}
	return &RuntimeError{
		Err:       kind,
		Message:   fmt.Sprintf(format, args...),
		CodeFrame: formatCodeFrame(exec.program.source, pos),
		Frames:    frames,
	}
}
