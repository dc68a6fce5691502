package sim

import "fmt"

// A Simulation is a session that owns an engine, an id generator and the
// registry of the components taking part in the run.
type Simulation struct {
	engine        Engine
	idGenerator   IDGenerator
	components    []Component
	compNameIndex map[string]int
}

// NewSimulation creates a simulation session with a serial engine and a
// sequential id generator.
func NewSimulation() *Simulation {
	return NewSimulationWith(NewSerialEngine(), NewSequentialIDGenerator())
}

// NewSimulationWith creates a simulation session on top of the given engine
// and id generator.
func NewSimulationWith(engine Engine, idGenerator IDGenerator) *Simulation {
	return &Simulation{
		engine:        engine,
		idGenerator:   idGenerator,
		compNameIndex: make(map[string]int),
	}
}

// GetEngine returns the engine of the session.
func (s *Simulation) GetEngine() Engine {
	return s.engine
}

// IDGenerator returns the id generator of the session.
func (s *Simulation) IDGenerator() IDGenerator {
	return s.idGenerator
}

// RegisterComponent registers a component with the simulation. Component
// names must be unique.
func (s *Simulation) RegisterComponent(c Component) error {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		return fmt.Errorf("sim: component %s already registered", compName)
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	return nil
}

// Components returns all the registered components in registration order.
func (s *Simulation) Components() []Component {
	return s.components
}

// GetComponentByName returns the component with the given name, or nil if
// there is no such component.
func (s *Simulation) GetComponentByName(name string) Component {
	idx, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[idx]
}
