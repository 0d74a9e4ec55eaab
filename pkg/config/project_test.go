package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/hoist/pkg/errors"
)

func TestParseProject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		exp      Project
		expError error
	}{
		{
			name: "Full",
			input: `
version: v1alpha1
name: shop
services:
- name: node
  version: "18"
  size: small
  commands:
    install: npm install
    start: npm start
  environment:
    PORT: "3000"
- name: worker
  size: medium
  inactive: true
  commands: {}
exclude:
- node_modules
`,
			exp: Project{
				Version: SupportedProjectConfigVersion,
				Name:    "shop",
				Services: []Service{
					{
						Name:    "node",
						Version: "18",
						Size:    "small",
						Commands: Commands{
							Install: "npm install",
							Start:   "npm start",
						},
						Environment: map[string]string{"PORT": "3000"},
					},
					{
						Name:     "worker",
						Size:     "medium",
						Inactive: true,
					},
				},
				Exclude: []string{"node_modules"},
			},
		},
		{
			name: "DefaultName",
			input: `
services: []
`,
			exp: Project{
				Version:  SupportedProjectConfigVersion,
				Name:     "project",
				Services: []Service{},
			},
		},
		{
			name: "MissingSize",
			input: `
services:
- name: node
  commands: {}
`,
			expError: errors.WithContext(
				errors.MissingFieldError{Field: "size"}, `service "node"`),
		},
		{
			name: "ScopedName",
			input: `
name: "@acme/shop"
services: []
`,
			expError: errors.NewFriendlyError(
				`Invalid project name "@acme/shop". Set a name without slashes in hoist.yaml.`),
		},
		{
			name: "ParentDirectoryName",
			input: `
name: ../../etc
services: []
`,
			expError: errors.NewFriendlyError(
				`Invalid project name "../../etc". Set a name without slashes in hoist.yaml.`),
		},
		{
			name: "DotDotName",
			input: `
name: ".."
services: []
`,
			expError: errors.NewFriendlyError(
				`Invalid project name "..". Set a name without slashes in hoist.yaml.`),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs = afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/src/project/hoist.yaml",
				[]byte(test.input), 0644))

			project, err := ParseProject("/src/project")
			assert.Equal(t, test.expError, err)
			if test.expError == nil {
				assert.Equal(t, test.exp, project)
			}
		})
	}
}

func TestValidateProjectName(t *testing.T) {
	for _, name := range []string{"shop", "my-shop", "shop.v2", "@acme-shop"} {
		assert.NoError(t, ValidateProjectName(name), name)
	}
	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "/shop", "shop/"} {
		assert.Error(t, ValidateProjectName(name), name)
	}
}

func TestActiveServices(t *testing.T) {
	project := Project{
		Services: []Service{
			{Name: "web"},
			{Name: "old", Inactive: true},
			{Name: "api"},
		},
	}
	assert.Equal(t, []Service{{Name: "web"}, {Name: "api"}}, project.ActiveServices())
	assert.Empty(t, Project{}.ActiveServices())
}

func TestProjectStore(t *testing.T) {
	fs = afero.NewMemMapFs()
	store := ProjectStore{Dir: "/src/shop"}

	_, ok, err := store.Load()
	assert.NoError(t, err)
	assert.False(t, ok)

	project := Project{
		Name: "shop",
		Services: []Service{
			{Name: "node", Size: "small", Commands: Commands{Start: "npm start"}},
		},
		Exclude: DefaultExclude,
	}
	require.NoError(t, store.Write(project))

	loaded, ok, err := store.Load()
	assert.NoError(t, err)
	assert.True(t, ok)

	project.Version = SupportedProjectConfigVersion
	assert.Equal(t, project, loaded)
}
