package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/Abra313/socrease-lesson-note-management/apps/api/echo"
	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/ai"
	aisvc "github.com/Abra313/socrease-lesson-note-management/services/ai"
)

func TestNew(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_DEBUG", "true")
	t.Setenv("TEST_DATABASE_ENGINE", "memory")

	c := New()
	err := c.Invoke(func(conf *core.Config, completer ai.Completer, mailer core.EmailService, server *echoapi.Server) {
		defer server.Close()
		assert.Equal(t, "memory", conf.Database.Engine)
		assert.IsType(t, &aisvc.MockCompleter{}, completer)
		assert.NotNil(t, mailer)
		assert.Equal(t, mailer, server.Mailer)
	})
	require.NoError(t, err)
}
