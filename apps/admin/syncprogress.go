package main

import (
	"context"
	"fmt"

	"github.com/qwaszx001001/byzantium/core/enrollment"
)

// syncProgress refreshes the cached progress of every matching enrollment. Zero ids match all.
func (cli *commandLine) syncProgress(userID, courseID int) error {
	n, err := cli.enrollmentSvc.SyncAll(context.Background(), enrollment.QueryFilter{UserID: userID, CourseID: courseID})
	fmt.Printf("synced %d enrollment(s)\n", n)
	return err
}
