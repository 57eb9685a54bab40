package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectDescriptor_Framework(t *testing.T) {
	assert.Equal(t, "xUnit", ProjectDescriptor{XUnit: true}.Framework())
	assert.Equal(t, "NUnit", ProjectDescriptor{}.Framework())
}

func TestProjectDescriptor_Supports(t *testing.T) {
	d := ProjectDescriptor{Platforms: []Platform{PlatformIOS, PlatformTvOS}}

	assert.True(t, d.Supports(PlatformIOS))
	assert.True(t, d.Supports(PlatformTvOS))
	assert.False(t, d.Supports(PlatformWatchOS))
	assert.False(t, ProjectDescriptor{}.Supports(PlatformIOS))
}

func TestMacFlavor(t *testing.T) {
	assert.Equal(t, PlatformMacOSFull, MacFlavorFull.Platform())
	assert.Equal(t, PlatformMacOSModern, MacFlavorModern.Platform())

	f, err := ParseMacFlavor("Modern")
	require.NoError(t, err)
	assert.Equal(t, MacFlavorModern, f)

	_, err = ParseMacFlavor("xamarin")
	assert.Error(t, err)
}

func TestManifest_Validate(t *testing.T) {
	t.Run("valid manifest", func(t *testing.T) {
		m := &Manifest{
			IOS: []ProjectDescriptor{{Name: "System", Path: "System.csproj", Platforms: []Platform{PlatformIOS}}},
			Mac: []ProjectDescriptor{{Name: "System", Path: "mac/System.csproj", Platforms: []Platform{PlatformMacOSFull}}},
		}
		assert.Empty(t, m.Validate())
	})

	t.Run("reports every problem", func(t *testing.T) {
		m := &Manifest{
			IOS: []ProjectDescriptor{
				{Name: "", Path: "a.csproj"},
				{Name: "Corlib", Path: ""},
				{Name: "Corlib", Path: "b.csproj", Platforms: []Platform{"android"}},
			},
		}
		errs := m.Validate()
		require.Len(t, errs, 4)
		assert.Equal(t, "ios[0].name", errs[0].Field)
		assert.Equal(t, "ios[1].path", errs[1].Field)
		assert.Equal(t, "ios[2].name", errs[2].Field)
		assert.Contains(t, errs[2].Message, "duplicate project name 'Corlib'")
		assert.Equal(t, "ios[2].platforms[0]", errs[3].Field)
	})
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "root-directory", Message: "root directory is required"},
		{Field: "nuget.timeout", Message: "timeout must be positive", Line: 4},
	}
	assert.Equal(t, "validation failed:\n  - root-directory: root directory is required\n  - nuget.timeout (line 4): timeout must be positive\n", errs.Error())
	assert.Equal(t, "", ValidationErrors{}.Error())
}
