// Copyright 2019 Laszlo Fogas
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

// Project is a codebase tracked on the metrics service
type Project struct {
	// Key is the component key on the metrics service
	Key string `json:"key" yaml:"key"`
	// Name is the label shown in the digest
	Name string `json:"name" yaml:"name"`
}

// CoverageReading is the coverage of a project at the time of the run.
// Percent is nil if the reading could not be fetched.
type CoverageReading struct {
	Project Project  `json:"project"`
	Percent *float64 `json:"percent,omitempty"`
}
