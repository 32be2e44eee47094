package coexist

import "github.com/wigg/datalayer/pkg/statemachine"

// Phase is the lifecycle state of a Hook.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseReady     Phase = "ready"
	PhaseErrored   Phase = "errored"
	PhaseUnmounted Phase = "unmounted"
)

type signal string

const (
	sigRequest signal = "request"
	sigSucceed signal = "succeed"
	sigFail    signal = "fail"
	sigDisable signal = "disable"
	sigUnmount signal = "unmount"
)

func newLifecycle(l statemachine.Listener[Phase, signal]) *statemachine.Machine[Phase, signal] {
	return statemachine.MustNew(PhaseIdle,
		statemachine.WithTransition(sigRequest, PhaseLoading, PhaseIdle, PhaseLoading, PhaseReady, PhaseErrored),
		statemachine.WithTransition(sigSucceed, PhaseReady, PhaseLoading, PhaseReady, PhaseErrored),
		statemachine.WithTransition(sigFail, PhaseErrored, PhaseLoading, PhaseReady, PhaseErrored),
		statemachine.WithTransition(sigDisable, PhaseIdle, PhaseIdle, PhaseLoading, PhaseReady, PhaseErrored),
		statemachine.WithTransition(sigUnmount, PhaseUnmounted, PhaseIdle, PhaseLoading, PhaseReady, PhaseErrored),
		statemachine.WithTerminal[Phase, signal](PhaseUnmounted),
		statemachine.WithListener(l),
	)
}
