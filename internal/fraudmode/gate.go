// Package fraudmode содержит переключатель режима махинаций.
package fraudmode

// Gate разрешает или запрещает действия подделки: смену марки, переклейку ценника
// и сдачу фальшивыми купюрами.
type Gate struct {
	active bool
}

// Toggle переключает режим и возвращает новое состояние.
func (g *Gate) Toggle() bool {
	g.active = !g.active
	return g.active
}

// Active сообщает, включён ли режим.
func (g *Gate) Active() bool {
	return g.active
}
