// Package conversation maps (stored session state, incoming event) to side
// effects and the next session state.
//
// One Engine.Handle call is one turn: the reset signal forces START, any other
// event resolves the stored label, runs the handler for that state and persists
// the state the handler returned. Handler failures leave the stored state
// untouched so the next event is handled against the same state.
package conversation
