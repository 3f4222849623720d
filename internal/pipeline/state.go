// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import "fmt"

// State tracks how far a sample has progressed through the pipeline.
// A sample advances through the states in declaration order; Annotated and
// Abandoned are terminal.
type State int

const (
	Discovered State = iota
	Trimmed
	Aligned
	Sorted
	Tagged
	Called
	Compressed
	Annotated
	Abandoned
)

var stateNames = map[State]string{
	Discovered: "discovered",
	Trimmed:    "trimmed",
	Aligned:    "aligned",
	Sorted:     "sorted",
	Tagged:     "tagged",
	Called:     "called",
	Compressed: "compressed",
	Annotated:  "annotated",
	Abandoned:  "abandoned",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further stages run for a sample in this state.
func (s State) Terminal() bool {
	return s == Annotated || s == Abandoned
}

// advance validates and performs a single state transition.  Stages complete
// strictly in order, so the only legal move from a non-terminal state is to
// its successor or to Abandoned.
func advance(from, to State) (State, error) {
	if from.Terminal() {
		return from, fmt.Errorf("sample already %s", from)
	}
	if to != Abandoned && to != from+1 {
		return from, fmt.Errorf("invalid transition %s -> %s", from, to)
	}
	return to, nil
}
