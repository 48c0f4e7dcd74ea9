package dirauth

// worker serializes every provider call onto one dedicated goroutine.
// Identity-provider clients can be particular about the execution context
// that drives them, so acquisition never runs inline on arbitrary caller
// goroutines; callers still see a plain blocking call.
type worker struct {
	jobs chan func()
}

func newWorker() *worker {
	w := &worker{jobs: make(chan func())}
	go w.loop()
	return w
}

func (w *worker) loop() {
	for fn := range w.jobs {
		fn()
	}
}

// do runs fn on the worker goroutine and blocks until it returns.
func (w *worker) do(fn func()) {
	done := make(chan struct{})
	w.jobs <- func() {
		defer close(done)
		fn()
	}
	<-done
}

// stop releases the worker goroutine. do must not be called afterwards.
func (w *worker) stop() {
	close(w.jobs)
}
