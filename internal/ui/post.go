package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// runMsg carries work posted from other goroutines onto the Bubble Tea
// event loop, which is the controller's owner goroutine.
type runMsg func()

// poster delivers runMsgs to the program. The program only exists after
// the model is built, so send is bound late.
type poster struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (p *poster) bind(send func(tea.Msg)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.send = send
}

// post reports false until bind has been called.
func (p *poster) post(fn func()) bool {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()
	if send == nil {
		return false
	}
	send(runMsg(fn))
	return true
}
