package db

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/midicom/model"
	"github.com/jsphweid/midicom/store"
	"github.com/pkg/errors"
)

const partitionKey = "PK"

// JobTable keeps job metadata in a DynamoDB table keyed by job id.
type JobTable struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

var _ store.MetadataStore = (*JobTable)(nil)

// NewJobTable connects to the DynamoDB endpoint, usually a local instance
// such as http://localhost:8000.
func NewJobTable(endpoint, table string) (*JobTable, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String("localhost"),
		Endpoint: aws.String(endpoint),
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating DynamoDB session")
	}
	return NewJobTableWithClient(dynamodb.New(sess), table), nil
}

func NewJobTableWithClient(client dynamodbiface.DynamoDBAPI, table string) *JobTable {
	return &JobTable{client: client, table: table}
}

type jobItem struct {
	PK string
	model.JobMetadata
}

func (j *JobTable) PutJob(meta model.JobMetadata) error {
	item, err := dynamodbattribute.MarshalMap(jobItem{PK: meta.JobId, JobMetadata: meta})
	if err != nil {
		return errors.Wrap(err, "marshalling job metadata")
	}
	_, err = j.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(j.table),
		Item:      item,
	})
	return errors.Wrapf(err, "putting job %s", meta.JobId)
}

func (j *JobTable) GetJob(jobId string) (model.JobMetadata, error) {
	out, err := j.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(j.table),
		Key: map[string]*dynamodb.AttributeValue{
			partitionKey: {S: aws.String(jobId)},
		},
	})
	if err != nil {
		return model.JobMetadata{}, errors.Wrapf(err, "getting job %s", jobId)
	}
	if len(out.Item) == 0 {
		return model.JobMetadata{}, errors.Wrapf(store.ErrJobNotFound, "job %s", jobId)
	}

	var item jobItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return model.JobMetadata{}, errors.Wrap(err, "unmarshalling job metadata")
	}
	return item.JobMetadata, nil
}

func (j *JobTable) ListJobs() ([]model.JobMetadata, error) {
	var res []model.JobMetadata
	var unmarshalErr error
	err := j.client.ScanPages(&dynamodb.ScanInput{TableName: aws.String(j.table)},
		func(page *dynamodb.ScanOutput, lastPage bool) bool {
			for _, v := range page.Items {
				var item jobItem
				if unmarshalErr = dynamodbattribute.UnmarshalMap(v, &item); unmarshalErr != nil {
					return false
				}
				res = append(res, item.JobMetadata)
			}
			return true
		})
	if err != nil {
		return nil, errors.Wrap(err, "scanning jobs")
	}
	if unmarshalErr != nil {
		return nil, errors.Wrap(unmarshalErr, "unmarshalling job metadata")
	}
	return res, nil
}
