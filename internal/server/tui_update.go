// ABOUTME: TUI update helpers for server
// ABOUTME: Pushes the session registry to the TUI
package server

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}

	s.tui.Update(ServerStatus{
		Name:     s.config.Name,
		Port:     s.config.Port,
		Sessions: s.Sessions(),
	})
}
