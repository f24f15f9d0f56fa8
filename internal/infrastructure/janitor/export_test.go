package janitor

// Sweep runs one retention pass directly, bypassing the schedule.
func (j *Janitor) Sweep() {
	j.sweep()
}
