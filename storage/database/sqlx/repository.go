package sqlxrepos

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/qwaszx001001/byzantium/core"
)

// psql builds queries with postgres placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// pq error codes
const (
	foreignKeyViolation = "foreign_key_violation"
	uniqueViolation     = "unique_violation"
)

type repository struct {
	exec core.DBExecutor
}

// getExec returns the executor passed by the service (a transaction), or the repo default.
func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps sql.ErrNoRows to notFound and wraps any other error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// constraintViolation returns the name of the violated constraint when err is a pq error with the given code name.
func constraintViolation(err error, codeName string) (string, bool) {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == codeName {
		return pqErr.Constraint, true
	}
	return "", false
}

func toSQL(b sq.Sqlizer, msg string) (string, []interface{}, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return "", nil, errors.Wrap(err, msg)
	}
	return q, args, nil
}
