package monitor

// View renders the current frame.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return Render(m.snap, m.Selection(), m.renderOptions())
}

func (m Model) renderOptions() RenderOptions {
	return RenderOptions{
		Width:     m.width,
		Height:    m.height,
		Session:   m.Session(),
		Status:    m.status,
		StatusErr: m.statusErr,
		Err:       m.lastErr,
		History:   m.history,
	}
}
