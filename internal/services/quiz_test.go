package services

import (
	"testing"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type quizFixture struct {
	db       *gorm.DB
	svc      *QuizService
	presence *PresenceService
	alice    *models.User
	bob      *models.User
	target   *models.Fighter
	decoy    *models.Fighter
}

// newQuizFixture seeds a target fighter with three hints (levels 1..3) and a
// decoy for wrong guesses.
func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()
	db := setupTestDB(t)
	presence := NewPresenceService(db)
	svc := NewQuizService(db, NewFighterService(db), presence)

	f := &quizFixture{
		db:       db,
		svc:      svc,
		presence: presence,
		alice:    createUser(t, db, "alice"),
		bob:      createUser(t, db, "bob"),
		target:   createFighter(t, db, "堀口恭司", "ほりぐちきょうじ"),
		decoy:    createFighter(t, db, "朝倉海", "あさくらかい"),
	}
	addFeature(t, db, f.target.ID, models.FeatureLevelSpecific, "元UFCファイター")
	addFeature(t, db, f.target.ID, models.FeatureLevelNormal, "フライ級")
	addFeature(t, db, f.target.ID, models.FeatureLevelGeneric, "ストライカー")
	return f
}

// startedSession creates a two-player session, connects both and starts it.
func (f *quizFixture) startedSession(t *testing.T) *models.QuizSession {
	t.Helper()
	session, err := f.svc.CreateSession(f.alice.ID, &f.target.ID, false)
	require.NoError(t, err)
	_, err = f.svc.Join(session.ID, f.bob.ID)
	require.NoError(t, err)
	_, err = f.presence.MarkConnected(session.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.presence.MarkConnected(session.ID, f.bob.ID)
	require.NoError(t, err)
	session, err = f.svc.Start(session.ID, f.alice.ID)
	require.NoError(t, err)
	return session
}

func (f *quizFixture) participant(t *testing.T, sessionID, userID uint) *models.QuizParticipant {
	t.Helper()
	var p models.QuizParticipant
	require.NoError(t, f.db.Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&p).Error)
	return &p
}

func TestCreateQuizFreezesHintSequence(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQuizService(db, NewFighterService(db), NewPresenceService(db))
	alice := createUser(t, db, "alice")
	target := createFighter(t, db, "堀口恭司", "ほりぐちきょうじ")

	// Registered easiest-first on purpose; the frozen sequence must still come
	// out hardest-first.
	generic := addFeature(t, db, target.ID, models.FeatureLevelGeneric, "ストライカー")
	specific := addFeature(t, db, target.ID, models.FeatureLevelSpecific, "元UFCファイター")
	normal := addFeature(t, db, target.ID, models.FeatureLevelNormal, "フライ級")

	session, err := svc.CreateSession(alice.ID, &target.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.QuizStatusWaiting, session.Status)

	var hints []models.QuizHint
	require.NoError(t, db.Where("session_id = ?", session.ID).
		Order("display_order ASC").Find(&hints).Error)
	require.Len(t, hints, 3)
	assert.Equal(t, specific.ID, hints[0].FeatureID)
	assert.Equal(t, normal.ID, hints[1].FeatureID)
	assert.Equal(t, generic.ID, hints[2].FeatureID)

	var count int64
	require.NoError(t, db.Model(&models.QuizParticipant{}).
		Where("session_id = ? AND user_id = ?", session.ID, alice.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateQuizRequiresFeatures(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQuizService(db, NewFighterService(db), NewPresenceService(db))
	alice := createUser(t, db, "alice")
	bare := createFighter(t, db, "新人選手", "しんじんせんしゅ")

	_, err := svc.CreateSession(alice.ID, &bare.ID, false)
	assert.ErrorIs(t, err, ErrNoHints)
}

func TestCreateQuizRandomTargetNeedsEligibleFighters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQuizService(db, NewFighterService(db), NewPresenceService(db))
	alice := createUser(t, db, "alice")
	createFighter(t, db, "新人選手", "しんじんせんしゅ")

	_, err := svc.CreateSession(alice.ID, nil, false)
	assert.ErrorIs(t, err, ErrNoEligibleFighters)
}

func TestQuizStartGuards(t *testing.T) {
	f := newQuizFixture(t)

	session, err := f.svc.CreateSession(f.alice.ID, &f.target.ID, false)
	require.NoError(t, err)

	t.Run("needs at least two participants", func(t *testing.T) {
		_, err := f.svc.Start(session.ID, f.alice.ID)
		assert.ErrorIs(t, err, ErrNotEnoughPlayers)
	})

	_, err = f.svc.Join(session.ID, f.bob.ID)
	require.NoError(t, err)

	t.Run("only the creator starts", func(t *testing.T) {
		_, err := f.svc.Start(session.ID, f.bob.ID)
		assert.ErrorIs(t, err, ErrNotCreator)
	})

	t.Run("waits for every connection", func(t *testing.T) {
		_, err := f.presence.MarkConnected(session.ID, f.alice.ID)
		require.NoError(t, err)
		_, err = f.svc.Start(session.ID, f.alice.ID)
		assert.ErrorIs(t, err, ErrNotAllConnected)
	})

	t.Run("starts once", func(t *testing.T) {
		_, err := f.presence.MarkConnected(session.ID, f.bob.ID)
		require.NoError(t, err)
		_, err = f.svc.Start(session.ID, f.alice.ID)
		require.NoError(t, err)
		_, err = f.svc.Start(session.ID, f.alice.ID)
		assert.ErrorIs(t, err, ErrNotWaiting)
	})
}

func TestQuizStartResetsParticipantState(t *testing.T) {
	f := newQuizFixture(t)

	session, err := f.svc.CreateSession(f.alice.ID, &f.target.ID, false)
	require.NoError(t, err)
	_, err = f.svc.Join(session.ID, f.bob.ID)
	require.NoError(t, err)

	// Stale per-round state left behind by a previous round.
	require.NoError(t, f.db.Model(&models.QuizParticipant{}).
		Where("session_id = ?", session.ID).
		Updates(map[string]interface{}{
			"miss_count": 2,
			"points":     80,
			"is_winner":  true,
		}).Error)

	_, err = f.presence.MarkConnected(session.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.presence.MarkConnected(session.ID, f.bob.ID)
	require.NoError(t, err)
	started, err := f.svc.Start(session.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuizStatusStarted, started.Status)
	assert.NotNil(t, started.StartedAt)

	for _, u := range []*models.User{f.alice, f.bob} {
		p := f.participant(t, session.ID, u.ID)
		assert.Zero(t, p.MissCount)
		assert.Zero(t, p.Points)
		assert.False(t, p.IsWinner)
		assert.Nil(t, p.AnsweredAt)
		assert.Nil(t, p.RespondedAt)
	}
}

func TestAnswerFlowScoresFromFinalHintIndex(t *testing.T) {
	f := newQuizFixture(t)
	session := f.startedSession(t)

	// Alice nails hint 1; the round keeps going for bob.
	res, err := f.svc.SubmitAnswer(session.ID, f.alice.ID, f.target.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCorrect, res.Outcome)
	assert.False(t, res.HintAdvanced)
	assert.False(t, res.SessionEnded)

	// Bob misses hint 1, which moves everyone to hint 2.
	res, err = f.svc.SubmitAnswer(session.ID, f.bob.ID, f.decoy.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIncorrect, res.Outcome)
	assert.True(t, res.HintAdvanced)
	assert.Equal(t, 1, res.HintIndex)
	assert.Equal(t, 1, f.participant(t, session.ID, f.bob.ID).MissCount)

	// Bob passes hint 2, then gets hint 3 right, ending the round.
	res, err = f.svc.Pass(session.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomePassed, res.Outcome)
	assert.True(t, res.HintAdvanced)
	assert.Equal(t, 2, res.HintIndex)

	res, err = f.svc.SubmitAnswer(session.ID, f.bob.ID, f.target.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCorrect, res.Outcome)
	assert.True(t, res.SessionEnded)

	// Scores come from the final hint index: both answered with three hints
	// showing, so alice holds 60 clean while bob pays for one pass and one
	// miss. Alice outranks bob even though bob ended the round.
	assert.Equal(t, 60, f.participant(t, session.ID, f.alice.ID).Points)
	assert.Equal(t, 20, f.participant(t, session.ID, f.bob.ID).Points)

	require.NotNil(t, res.WinnerUserID)
	assert.Equal(t, f.alice.ID, *res.WinnerUserID)
	assert.True(t, f.participant(t, session.ID, f.alice.ID).IsWinner)
	assert.False(t, f.participant(t, session.ID, f.bob.ID).IsWinner)

	var s models.QuizSession
	require.NoError(t, f.db.First(&s, session.ID).Error)
	assert.Equal(t, models.QuizStatusEnded, s.Status)
	require.NotNil(t, s.WinnerUserID)
	assert.Equal(t, f.alice.ID, *s.WinnerUserID)
	assert.NotNil(t, s.EndedAt)
}

func TestPointTieLeavesNoWinner(t *testing.T) {
	f := newQuizFixture(t)
	session := f.startedSession(t)

	_, err := f.svc.SubmitAnswer(session.ID, f.alice.ID, f.target.ID)
	require.NoError(t, err)
	res, err := f.svc.SubmitAnswer(session.ID, f.bob.ID, f.target.ID)
	require.NoError(t, err)
	assert.True(t, res.SessionEnded)
	assert.Nil(t, res.WinnerUserID)

	assert.Equal(t, 100, f.participant(t, session.ID, f.alice.ID).Points)
	assert.Equal(t, 100, f.participant(t, session.ID, f.bob.ID).Points)
	assert.False(t, f.participant(t, session.ID, f.alice.ID).IsWinner)
	assert.False(t, f.participant(t, session.ID, f.bob.ID).IsWinner)

	var s models.QuizSession
	require.NoError(t, f.db.First(&s, session.ID).Error)
	assert.Equal(t, models.QuizStatusEnded, s.Status)
	assert.Nil(t, s.WinnerUserID)
}

func TestHintsExhaustedEndsWithoutWinner(t *testing.T) {
	f := newQuizFixture(t)
	session := f.startedSession(t)

	var last *AnswerResult
	for i := 0; i < 3; i++ {
		_, err := f.svc.Pass(session.ID, f.alice.ID)
		require.NoError(t, err)
		var err2 error
		last, err2 = f.svc.Pass(session.ID, f.bob.ID)
		require.NoError(t, err2)
	}

	assert.True(t, last.SessionEnded)
	assert.Nil(t, last.WinnerUserID)

	var s models.QuizSession
	require.NoError(t, f.db.First(&s, session.ID).Error)
	assert.Equal(t, models.QuizStatusEnded, s.Status)
	assert.Nil(t, s.WinnerUserID)
	assert.Zero(t, f.participant(t, session.ID, f.alice.ID).Points)
	assert.Zero(t, f.participant(t, session.ID, f.bob.ID).Points)
}

func TestResponseGuards(t *testing.T) {
	f := newQuizFixture(t)

	t.Run("before start", func(t *testing.T) {
		session, err := f.svc.CreateSession(f.alice.ID, &f.target.ID, false)
		require.NoError(t, err)
		_, err = f.svc.SubmitAnswer(session.ID, f.alice.ID, f.decoy.ID)
		assert.ErrorIs(t, err, ErrNotStarted)
	})
}

func TestResponseGuardsWhileStarted(t *testing.T) {
	f := newQuizFixture(t)
	session := f.startedSession(t)
	outsider := createUser(t, f.db, "carol")

	t.Run("non-participant", func(t *testing.T) {
		_, err := f.svc.SubmitAnswer(session.ID, outsider.ID, f.decoy.ID)
		assert.ErrorIs(t, err, ErrNotParticipant)
	})

	t.Run("one response per hint", func(t *testing.T) {
		_, err := f.svc.Pass(session.ID, f.bob.ID)
		require.NoError(t, err)
		_, err = f.svc.Pass(session.ID, f.bob.ID)
		assert.ErrorIs(t, err, ErrAlreadyResponded)
		_, err = f.svc.SubmitAnswer(session.ID, f.bob.ID, f.decoy.ID)
		assert.ErrorIs(t, err, ErrAlreadyResponded)
	})

	t.Run("no responses after a correct answer", func(t *testing.T) {
		_, err := f.svc.SubmitAnswer(session.ID, f.alice.ID, f.target.ID)
		require.NoError(t, err)
		_, err = f.svc.SubmitAnswer(session.ID, f.alice.ID, f.target.ID)
		assert.ErrorIs(t, err, ErrAlreadyAnswered)
		_, err = f.svc.Pass(session.ID, f.alice.ID)
		assert.ErrorIs(t, err, ErrAlreadyAnswered)
	})
}

func TestJoinQuizGuards(t *testing.T) {
	f := newQuizFixture(t)

	session, err := f.svc.CreateSession(f.alice.ID, &f.target.ID, false)
	require.NoError(t, err)
	_, err = f.svc.Join(session.ID, f.bob.ID)
	require.NoError(t, err)

	_, err = f.svc.Join(session.ID, f.bob.ID)
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = f.presence.MarkConnected(session.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.presence.MarkConnected(session.ID, f.bob.ID)
	require.NoError(t, err)
	_, err = f.svc.Start(session.ID, f.alice.ID)
	require.NoError(t, err)

	carol := createUser(t, f.db, "carol")
	_, err = f.svc.Join(session.ID, carol.ID)
	assert.ErrorIs(t, err, ErrNotJoinable)
}

func TestSoloQuizRunsAlone(t *testing.T) {
	f := newQuizFixture(t)

	session, err := f.svc.CreateSession(f.alice.ID, &f.target.ID, true)
	require.NoError(t, err)

	// Solo mode starts with one participant and no connection gate.
	_, err = f.svc.Start(session.ID, f.alice.ID)
	require.NoError(t, err)

	res, err := f.svc.SubmitAnswer(session.ID, f.alice.ID, f.target.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCorrect, res.Outcome)
	assert.True(t, res.SessionEnded)
	require.NotNil(t, res.WinnerUserID)
	assert.Equal(t, f.alice.ID, *res.WinnerUserID)
	assert.Equal(t, 100, f.participant(t, session.ID, f.alice.ID).Points)
}

func TestNextHintStopsAtEnd(t *testing.T) {
	f := newQuizFixture(t)
	session := f.startedSession(t)

	more, err := f.svc.HasMoreHints(session.ID)
	require.NoError(t, err)
	assert.True(t, more)

	hint, err := f.svc.NextHint(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, hint.Index)

	hint, err = f.svc.NextHint(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, hint.Index)

	_, err = f.svc.NextHint(session.ID)
	assert.ErrorIs(t, err, ErrNoMoreHints)
}

func TestGetQuizStateHidesTargetUntilEnded(t *testing.T) {
	f := newQuizFixture(t)
	session := f.startedSession(t)

	state, err := f.svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, state.HintCount)
	require.NotNil(t, state.CurrentHint)
	assert.Equal(t, "元UFCファイター", state.CurrentHint.Text)
	assert.Nil(t, state.TargetFighter)

	_, err = f.svc.SubmitAnswer(session.ID, f.alice.ID, f.target.ID)
	require.NoError(t, err)

	state, err = f.svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Nil(t, state.TargetFighter)
	assert.Equal(t, OutcomeCorrect, state.CurrentHintResponses[f.alice.ID])

	// Bob's miss closes out hint 1 and brings up the next one.
	_, err = f.svc.SubmitAnswer(session.ID, f.bob.ID, f.decoy.ID)
	require.NoError(t, err)

	state, err = f.svc.GetSession(session.ID)
	require.NoError(t, err)
	require.NotNil(t, state.CurrentHint)
	assert.Equal(t, "フライ級", state.CurrentHint.Text)
	assert.Empty(t, state.CurrentHintResponses)

	// Bob finishes the round on the last hint.
	_, err = f.svc.Pass(session.ID, f.bob.ID)
	require.NoError(t, err)
	res, err := f.svc.SubmitAnswer(session.ID, f.bob.ID, f.target.ID)
	require.NoError(t, err)
	require.True(t, res.SessionEnded)

	state, err = f.svc.GetSession(session.ID)
	require.NoError(t, err)
	require.NotNil(t, state.TargetFighter)
	assert.Equal(t, f.target.ID, state.TargetFighter.ID)
	require.NotNil(t, state.WinnerUser)
	assert.Equal(t, f.alice.ID, state.WinnerUser.ID)
}
