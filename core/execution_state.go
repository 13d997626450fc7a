package core

func (exec *Execution) pushFrame(function string, pos Position, receiver *Instance) error {
	if exec.recursionCap > 0 && len(exec.callStack) >= exec.recursionCap {
		return exec.errorAt(ErrStackOverflow, pos, "recursion depth exceeded (limit %d)", exec.recursionCap)
	}
	exec.callStack = append(exec.callStack, callFrame{Function: function, Pos: pos, Receiver: receiver})
	exec.maxDepth = max(exec.maxDepth, len(exec.callStack))
	return nil
}

func (exec *Execution) popFrame() {
	if len(exec.callStack) == 0 {
		return
	}
	exec.callStack = exec.callStack[:len(exec.callStack)-1]
}

func (exec *Execution) currentReceiver() *Instance {
	if len(exec.callStack) == 0 {
		return nil
	}
	return exec.callStack[len(exec.callStack)-1].Receiver
}
